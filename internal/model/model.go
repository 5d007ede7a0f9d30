package model

import "time"

// TokenInfo is the payload returned to the client after a successful callback.
type TokenInfo struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    *int64   `json:"expires_in"` // Unix timestamp of expiry, null if unknown
	Scope        []string `json:"scope"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
}

// FileRecord is a Drive file reduced to what the dashboard renders.
type FileRecord struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Modified time.Time `json:"modified"`
	ViewLink string    `json:"viewLink"`
}

// FileList is the body of GET /auth/drive/files.
type FileList struct {
	Files []FileRecord `json:"files"`
}

// LoginRecord is one successful login, stored in DynamoDB.
type LoginRecord struct {
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	EncryptedEmail string    `json:"encrypted_email" dynamodbav:"encrypted_email"`
	Scopes         []string  `json:"scopes" dynamodbav:"scopes,stringset,omitempty"`
	LoggedInAt     time.Time `json:"logged_in_at" dynamodbav:"logged_in_at"`
	ExpiresAt      int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix timestamp)
}

// Profile is the body of GET /auth/user.
type Profile struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name,omitempty"`
	Picture     string     `json:"picture,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}
