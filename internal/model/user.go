package model

import "time"

// User is an anonymous local profile. There are no credentials; the
// application runs entirely on-device.
type User struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"displayName"`
	TrollIntensity int       `json:"trollIntensity"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
