package models

import "time"

// Lookup is one row of a shared reference table: a stable code plus its
// administrator-editable human label.
type Lookup struct {
	ID    int    `json:"id"`
	Code  string `json:"code"`
	Label string `json:"label"`
}

// User is a row of the shared users table. This service only reads it.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Project owns exactly one tenant schema for the life of the project.
type Project struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	SchemaName string    `json:"schemaName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Name string `json:"name"`
}
