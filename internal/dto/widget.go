package dto

// WidgetSize is the launcher footprint of a widget.
type WidgetSize struct {
	WidthDp  int `json:"width_dp"`
	HeightDp int `json:"height_dp"`
	Columns  int `json:"columns"`
	Rows     int `json:"rows"`
}

// WidgetSizeQuery is the optional size reported by the host.
type WidgetSizeQuery struct {
	Width  int `form:"width" binding:"omitempty,min=1,max=2000"`
	Height int `form:"height" binding:"omitempty,min=1,max=2000"`
}

// EmptyStateView is the copy shown when a section has nothing to display.
type EmptyStateView struct {
	State  string `json:"state"`
	Icon   string `json:"icon"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// WidgetEntry is one rendered row or card.
type WidgetEntry struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Time     string `json:"time,omitempty"`
	Room     string `json:"room,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Status   string `json:"status,omitempty"`
	Badge    string `json:"badge,omitempty"`
	Link     string `json:"link,omitempty"`
}

// WidgetView is the fully formatted content of a widget.
type WidgetView struct {
	Kind         string          `json:"kind"`
	Group        string          `json:"group"`
	Size         WidgetSize      `json:"size"`
	EffectiveNow string          `json:"effective_now"`
	DebugClock   bool            `json:"debug_clock"`
	Title        string          `json:"title,omitempty"`
	Count        *int            `json:"count,omitempty"`
	Link         string          `json:"link,omitempty"`
	Primary      *WidgetEntry    `json:"primary,omitempty"`
	Items        []WidgetEntry   `json:"items,omitempty"`
	Lessons      []WidgetEntry   `json:"lessons,omitempty"`
	Exams        []WidgetEntry   `json:"exams,omitempty"`
	Empty        *EmptyStateView `json:"empty,omitempty"`
	ExamEmpty    *EmptyStateView `json:"exam_empty,omitempty"`
}

// WidgetInstanceRequest registers a widget placed on the home screen.
type WidgetInstanceRequest struct {
	ID   string `json:"id" validate:"omitempty,max=64"`
	Kind string `json:"kind" validate:"required"`
}

// BroadcastRequest asks for a widget refresh.
type BroadcastRequest struct {
	Action string `json:"action" validate:"required"`
}

// BroadcastResponse acknowledges an enqueued refresh.
type BroadcastResponse struct {
	JobID  string   `json:"job_id"`
	Action string   `json:"action"`
	Groups []string `json:"groups"`
}
