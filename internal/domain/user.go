package domain

import "time"

type DocumentImages struct {
	FrontImage string `json:"frontImage,omitempty"`
	BackImage  string `json:"backImage,omitempty"`
}

// Complete reports whether both sides of the document were uploaded.
func (d *DocumentImages) Complete() bool {
	return d != nil && d.FrontImage != "" && d.BackImage != ""
}

type UserDocuments struct {
	Aadhaar        *DocumentImages `json:"aadhaar,omitempty"`
	DrivingLicense *DocumentImages `json:"drivingLicense,omitempty"`
}

// User is the profile snapshot the remote API returns on login and profile reads.
type User struct {
	ID                 string        `json:"_id"`
	Name               string        `json:"name"`
	Email              string        `json:"email"`
	Phone              string        `json:"phone,omitempty"`
	Address            string        `json:"address,omitempty"`
	TotalBookings      int           `json:"totalBookings"`
	IsDocumentVerified bool          `json:"isDocumentVerified"`
	Documents          UserDocuments `json:"documents"`
}

// HasUploadedIdentityDocs requires both sides of both Aadhaar and driving licence.
func (u User) HasUploadedIdentityDocs() bool {
	return u.Documents.Aadhaar.Complete() && u.Documents.DrivingLicense.Complete()
}

// UserTrustState is what the Eligibility Gate decides on.
type UserTrustState struct {
	IsAuthenticated         bool `json:"isAuthenticated"`
	TotalBookings           int  `json:"totalBookings"`
	HasUploadedIdentityDocs bool `json:"hasUploadedIdentityDocs"`
	IsDocumentVerified      bool `json:"isDocumentVerified"`
}

// TrustStateOf derives the gate input from an authenticated profile snapshot.
func TrustStateOf(u User) UserTrustState {
	return UserTrustState{
		IsAuthenticated:         true,
		TotalBookings:           u.TotalBookings,
		HasUploadedIdentityDocs: u.HasUploadedIdentityDocs(),
		IsDocumentVerified:      u.IsDocumentVerified,
	}
}

// Session is the persisted client state: the backend bearer token (sealed at
// rest) and the last profile snapshot.
type Session struct {
	ID          string    `json:"id"`
	SealedToken []byte    `json:"-"`
	Profile     User      `json:"profile"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
	ExpiresOn   time.Time `json:"expires_on"`
}

// AuthResult is the remote API's login / verify-email payload.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type ProfileUpdate struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type DocumentSlot string

const (
	DocumentAadhaarFront        DocumentSlot = "aadhaarFront"
	DocumentAadhaarBack         DocumentSlot = "aadhaarBack"
	DocumentDrivingLicenseFront DocumentSlot = "drivingLicenseFront"
	DocumentDrivingLicenseBack  DocumentSlot = "drivingLicenseBack"
)

// DocumentSlots lists the multipart field names the upload endpoint accepts.
var DocumentSlots = []DocumentSlot{
	DocumentAadhaarFront,
	DocumentAadhaarBack,
	DocumentDrivingLicenseFront,
	DocumentDrivingLicenseBack,
}

type DocumentFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// DocumentUploadResult is the remote API's answer to a document upload.
type DocumentUploadResult struct {
	Documents          UserDocuments `json:"documents"`
	IsDocumentVerified bool          `json:"isDocumentVerified"`
}
