package models

import "time"

type User struct {
	UUID        string
	Name        string
	CreatedDate time.Time
	UpdatedAt   time.Time
}

type Group struct {
	UUID        string
	CreatedDate time.Time
	UpdatedAt   time.Time
}

type GroupParticipant struct {
	ID        int64
	GroupUUID string
	UserUUID  string
	JoinedAt  time.Time
}

type Message struct {
	ID          int64
	Content     string
	File        *string
	GroupID     string
	SenderID    string
	SenderName  string
	CreatedDate time.Time
	UpdatedAt   time.Time
	IsDeleted   bool
}
