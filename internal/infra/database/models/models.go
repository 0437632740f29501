package models

import (
	"time"
)

type BloodRequest struct {
	ID             string     `json:"id" gorm:"primaryKey;type:text"`
	RequesterKind  string     `json:"requesterKind" gorm:"type:text;index:idx_requester;not null"`
	RequesterID    string     `json:"requesterId" gorm:"type:text;index:idx_requester;not null"`
	BloodGroup     string     `json:"bloodGroup" gorm:"type:text;index;not null"`
	UnitsNeeded    int        `json:"unitsNeeded" gorm:"not null"`
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
	Address        string     `json:"address" gorm:"type:text;not null"`
	Status         string     `json:"status" gorm:"type:text;index;not null"`
	AcceptedByKind *string    `json:"acceptedByKind" gorm:"type:text;index:idx_accepter"`
	AcceptedByID   *string    `json:"acceptedById" gorm:"type:text;index:idx_accepter"`
	AcceptedAt     *time.Time `json:"acceptedAt" gorm:"type:timestamp with time zone"`
	DocumentRef    string     `json:"documentRef" gorm:"type:text"`
	CDate          time.Time  `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Donation struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text"`
	DonorKind  string    `json:"donorKind" gorm:"type:text;index:idx_donor;not null"`
	DonorID    string    `json:"donorId" gorm:"type:text;index:idx_donor;not null"`
	RequestID  *string   `json:"requestId" gorm:"type:text;index"`
	BloodGroup string    `json:"bloodGroup" gorm:"type:text;not null"`
	Units      int       `json:"units" gorm:"not null"`
	DonatedAt  time.Time `json:"donatedAt" gorm:"type:timestamp with time zone;index;not null"`
	Source     string    `json:"source" gorm:"type:text;not null"`
	CDate      time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

// Donor and Organization are the profile tables maintained by the
// account service sharing this database. This core only reads them.

type Donor struct {
	ID         string   `json:"id" gorm:"primaryKey;type:text"`
	Name       string   `json:"name" gorm:"type:text"`
	Email      string   `json:"email" gorm:"type:text"`
	Phone      string   `json:"phone" gorm:"type:text"`
	BloodGroup string   `json:"bloodGroup" gorm:"type:text;index"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Address    string   `json:"address" gorm:"type:text"`
	Verified   bool     `json:"verified" gorm:"not null;default:false"`
	Suspended  bool     `json:"suspended" gorm:"not null;default:false"`
}

type Organization struct {
	ID        string   `json:"id" gorm:"primaryKey;type:text"`
	Kind      string   `json:"kind" gorm:"type:text;index;not null"` // ngo, bank
	Name      string   `json:"name" gorm:"type:text"`
	Email     string   `json:"email" gorm:"type:text"`
	Phone     string   `json:"phone" gorm:"type:text"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address" gorm:"type:text"`
}
