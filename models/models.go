package models

// Student represents a tutoring student
type Student struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Rate       float64 `json:"rate"`       // Price per lesson
	AccessCode *string `json:"accessCode"` // nil until generated
}

// Event is a single scheduled lesson
type Event struct {
	ID        string `json:"id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Time      string `json:"time"`
	StudentID string `json:"studentId"`
	Notes     string `json:"notes"`
}

// PaidLessons is the prepaid lesson counter, keyed by student ID
type PaidLessons struct {
	StudentID string  `json:"studentId"`
	Count     float64 `json:"count"`
}

// StudentNotes holds free-text notes about a student, keyed by student ID
type StudentNotes struct {
	StudentID string `json:"studentId"`
	Notes     string `json:"notes"`
}

// Announcement is the single banner message shown to students
type Announcement struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	Active    bool   `json:"active"`
	UpdatedAt string `json:"updatedAt"`
}

// Settings holds global UI settings
type Settings struct {
	IsDarkMode bool `json:"isDarkMode"`
}

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Identity is the resolved caller of a request
type Identity struct {
	Role      string `json:"role"`
	StudentID string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
}

// IsAdmin reports whether the caller has the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Owns reports whether a student-scoped record belongs to the caller
func (i Identity) Owns(studentID string) bool {
	return i.IsAdmin() || (i.Role == RoleStudent && i.StudentID == studentID)
}
