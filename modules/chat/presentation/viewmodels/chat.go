package viewmodels

type User struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	CreatedDate string `json:"created_date"`
	UpdatedAt   string `json:"updated_at"`
}

type Group struct {
	UUID        string `json:"uuid"`
	CreatedDate string `json:"created_date"`
	UpdatedAt   string `json:"updated_at"`
}

type Participant struct {
	GroupUUID string `json:"group_uuid"`
	UserUUID  string `json:"user_uuid"`
	JoinedAt  string `json:"joined_at"`
}

type Message struct {
	ID          int64   `json:"id"`
	Content     string  `json:"content"`
	File        *string `json:"file"`
	GroupUUID   string  `json:"group_uuid"`
	SenderUUID  string  `json:"sender_uuid"`
	SenderName  string  `json:"sender_name"`
	CreatedDate string  `json:"created_date"`
	UpdatedAt   string  `json:"updated_at"`
	IsDeleted   bool    `json:"is_deleted"`
}

type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
	NextPage   *int  `json:"next_page"`
	PrevPage   *int  `json:"prev_page"`
}
