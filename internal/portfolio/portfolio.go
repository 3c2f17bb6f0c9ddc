package portfolio

import (
	"errors"
	"fmt"
	"strings"
)

// Local store keys. Each key holds one JSON document.
const (
	KeyProfile              = "profileData"
	KeyProjects             = "adminProjects"
	KeyContactMessages      = "contactMessages"
	KeySMSNotifications     = "smsNotifications"
	KeySMSCategories        = "smsCategories"
	KeyGitSettings          = "gitSettings"
	KeyNotificationSettings = "notificationSettings"
	KeyLastSeenNotification = "lastSeenNotificationId"
	KeyAdminUser            = "adminUser"
	KeySkills               = "skills"
	KeyActivities           = "activities"
)

// MigrationKeys are the keys transferred to the remote mirror, in order.
var MigrationKeys = []string{KeyProfile, KeyProjects, KeyContactMessages, KeyGitSettings}

// AllKeys lists every key the application reads or writes.
var AllKeys = []string{
	KeyProfile, KeyProjects, KeyContactMessages, KeySMSNotifications,
	KeySMSCategories, KeyGitSettings, KeyNotificationSettings,
	KeyLastSeenNotification, KeyAdminUser, KeySkills, KeyActivities,
}

var ErrInvalid = errors.New("invalid record")

type ProjectStatus string

const (
	StatusInDevelopment ProjectStatus = "In Development"
	StatusCompleted     ProjectStatus = "Completed"
	StatusLive          ProjectStatus = "Live"
	StatusPublished     ProjectStatus = "Published"
)

var projectStatuses = []ProjectStatus{StatusInDevelopment, StatusCompleted, StatusLive, StatusPublished}

func (s ProjectStatus) Valid() bool {
	for _, v := range projectStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseProjectStatus accepts the display form case-insensitively.
func ParseProjectStatus(value string) (ProjectStatus, error) {
	for _, v := range projectStatuses {
		if strings.EqualFold(strings.TrimSpace(value), string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: unknown project status %q", ErrInvalid, value)
}

type ContactMethod string

const (
	MethodEmail ContactMethod = "email"
	MethodSMS   ContactMethod = "sms"
	MethodCall  ContactMethod = "call"
)

func (m ContactMethod) Valid() bool {
	return m == MethodEmail || m == MethodSMS || m == MethodCall
}

type ContactStatus string

const (
	ContactNew     ContactStatus = "new"
	ContactReplied ContactStatus = "replied"
)

func (s ContactStatus) Valid() bool {
	return s == ContactNew || s == ContactReplied
}

type SMSStatus string

const (
	SMSPending   SMSStatus = "pending"
	SMSDelivered SMSStatus = "delivered"
	SMSFailed    SMSStatus = "failed"
)

func (s SMSStatus) Valid() bool {
	return s == SMSPending || s == SMSDelivered || s == SMSFailed
}

type SMSPriority string

const (
	PriorityLow    SMSPriority = "low"
	PriorityMedium SMSPriority = "medium"
	PriorityHigh   SMSPriority = "high"
)

func (p SMSPriority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type ContactInfo struct {
	Email    string `json:"email" bson:"email"`
	Phone    string `json:"phone" bson:"phone"`
	Location string `json:"location" bson:"location"`
	LinkedIn string `json:"linkedin" bson:"linkedin"`
	GitHub   string `json:"github" bson:"github"`
	Website  string `json:"website,omitempty" bson:"website,omitempty"`
	Twitter  string `json:"twitter,omitempty" bson:"twitter,omitempty"`
}

type Profile struct {
	Name         string      `json:"name" bson:"name"`
	Tagline      string      `json:"tagline" bson:"tagline"`
	Bio          string      `json:"bio" bson:"bio"`
	Skills       []string    `json:"skills" bson:"skills"`
	Experience   string      `json:"experience" bson:"experience"`
	Availability string      `json:"availability" bson:"availability"`
	ContactInfo  ContactInfo `json:"contactInfo" bson:"contactInfo"`
	ProfileImage string      `json:"profileImage" bson:"profileImage"`
	LogoText     string      `json:"logoText" bson:"logoText"`
	ResumeURL    string      `json:"resumeUrl" bson:"resumeUrl"`
}

// Clone returns a copy that shares no slices with p.
func (p Profile) Clone() Profile {
	out := p
	out.Skills = append([]string(nil), p.Skills...)
	return out
}

// ProfilePatch is a shallow partial update. Nil fields are left alone.
type ProfilePatch struct {
	Name         *string           `json:"name,omitempty"`
	Tagline      *string           `json:"tagline,omitempty"`
	Bio          *string           `json:"bio,omitempty"`
	Skills       []string          `json:"skills,omitempty"`
	Experience   *string           `json:"experience,omitempty"`
	Availability *string           `json:"availability,omitempty"`
	ContactInfo  *ContactInfoPatch `json:"contactInfo,omitempty"`
	ProfileImage *string           `json:"profileImage,omitempty"`
	LogoText     *string           `json:"logoText,omitempty"`
	ResumeURL    *string           `json:"resumeUrl,omitempty"`
}

func (p ProfilePatch) Apply(target Profile) Profile {
	out := target.Clone()
	setString(&out.Name, p.Name)
	setString(&out.Tagline, p.Tagline)
	setString(&out.Bio, p.Bio)
	setString(&out.Experience, p.Experience)
	setString(&out.Availability, p.Availability)
	setString(&out.ProfileImage, p.ProfileImage)
	setString(&out.LogoText, p.LogoText)
	setString(&out.ResumeURL, p.ResumeURL)
	if p.Skills != nil {
		out.Skills = append([]string(nil), p.Skills...)
	}
	if p.ContactInfo != nil {
		out.ContactInfo = p.ContactInfo.Apply(out.ContactInfo)
	}
	return out
}

type ContactInfoPatch struct {
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Location *string `json:"location,omitempty"`
	LinkedIn *string `json:"linkedin,omitempty"`
	GitHub   *string `json:"github,omitempty"`
	Website  *string `json:"website,omitempty"`
	Twitter  *string `json:"twitter,omitempty"`
}

func (p ContactInfoPatch) Apply(target ContactInfo) ContactInfo {
	out := target
	setString(&out.Email, p.Email)
	setString(&out.Phone, p.Phone)
	setString(&out.Location, p.Location)
	setString(&out.LinkedIn, p.LinkedIn)
	setString(&out.GitHub, p.GitHub)
	setString(&out.Website, p.Website)
	setString(&out.Twitter, p.Twitter)
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

type ProjectLinks struct {
	GitHub string `json:"github" bson:"github"`
	Demo   string `json:"demo" bson:"demo"`
	Live   string `json:"live,omitempty" bson:"live,omitempty"`
}

type Project struct {
	ID              int64         `json:"id" bson:"id"`
	Title           string        `json:"title" bson:"title"`
	Description     string        `json:"description" bson:"description"`
	FullDescription string        `json:"fullDescription,omitempty" bson:"fullDescription,omitempty"`
	Tags            []string      `json:"tags" bson:"tags"`
	Image           string        `json:"image" bson:"image"`
	Screenshots     []string      `json:"screenshots,omitempty" bson:"screenshots,omitempty"`
	Status          ProjectStatus `json:"status" bson:"status"`
	DateCompleted   string        `json:"dateCompleted,omitempty" bson:"dateCompleted,omitempty"`
	Links           ProjectLinks  `json:"links" bson:"links"`
	Challenges      string        `json:"challenges,omitempty" bson:"challenges,omitempty"`
	Outcome         string        `json:"outcome,omitempty" bson:"outcome,omitempty"`
	ClientKey       string        `json:"clientKey,omitempty" bson:"clientKey,omitempty"`
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: project title is required", ErrInvalid)
	}
	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("%w: project description is required", ErrInvalid)
	}
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown project status %q", ErrInvalid, p.Status)
	}
	return nil
}

type ContactMessage struct {
	ID             int64         `json:"id" bson:"id"`
	Name           string        `json:"name" bson:"name"`
	Email          string        `json:"email" bson:"email"`
	Phone          string        `json:"phone,omitempty" bson:"phone,omitempty"`
	Subject        string        `json:"subject" bson:"subject"`
	Message        string        `json:"message" bson:"message"`
	ContactMethod  ContactMethod `json:"contactMethod" bson:"contactMethod"`
	Status         ContactStatus `json:"status" bson:"status"`
	Date           string        `json:"date" bson:"date"`
	EmailSent      bool          `json:"emailSent,omitempty" bson:"emailSent,omitempty"`
	EmailTimestamp string        `json:"emailTimestamp,omitempty" bson:"emailTimestamp,omitempty"`
	ClientKey      string        `json:"clientKey,omitempty" bson:"clientKey,omitempty"`
}

func (m ContactMessage) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if strings.TrimSpace(m.Email) == "" || !strings.Contains(m.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", ErrInvalid)
	}
	if strings.TrimSpace(m.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalid)
	}
	if m.ContactMethod != "" && !m.ContactMethod.Valid() {
		return fmt.Errorf("%w: unknown contact method %q", ErrInvalid, m.ContactMethod)
	}
	if m.Status != "" && !m.Status.Valid() {
		return fmt.Errorf("%w: unknown contact status %q", ErrInvalid, m.Status)
	}
	return nil
}

type SMSNotification struct {
	ID        int64       `json:"id"`
	To        string      `json:"to"`
	Message   string      `json:"message"`
	Timestamp string      `json:"timestamp"`
	Status    SMSStatus   `json:"status"`
	Category  string      `json:"category,omitempty"`
	Priority  SMSPriority `json:"priority,omitempty"`
}

type GitSettings struct {
	Username    string `json:"username" bson:"username"`
	AccessToken string `json:"accessToken" bson:"accessToken"`
	IsConnected bool   `json:"isConnected" bson:"isConnected"`
}

type NotificationSettings struct {
	MobileNumber       string `json:"mobileNumber"`
	SMSNotifications   bool   `json:"smsNotifications"`
	EmailNotifications bool   `json:"emailNotifications"`
}

type Activity struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

type Skill struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Proficiency int    `json:"proficiency"`
}

type AdminUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SplitTags turns "a, b,,c" into [a b c].
func SplitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
