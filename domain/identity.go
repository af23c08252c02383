package domain

// Identity is the verified caller supplied by the authentication collaborator.
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}
