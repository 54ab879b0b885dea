package storage

// Profile is the stored identity of a user: their organization plus
// either a group membership or an employee record. Exactly one of the
// two identity halves is meaningful, selected by IsGroupMember.
type Profile struct {
	UserID        string `json:"user_id"`
	Organization  string `json:"organization"`
	IsGroupMember bool   `json:"is_group_member"`
	GroupName     string `json:"group_name,omitempty"`
	Subgroup      string `json:"subgroup,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Patronymic    string `json:"patronymic,omitempty"`
	EmployeeID    string `json:"employee_id,omitempty"`
	UpdatedAt     int64  `json:"updated_at"`
}

// Lesson is one scheduled class session.
type Lesson struct {
	ID           int64  `json:"id"`
	Organization string `json:"organization"`
	GroupName    string `json:"group_name"`
	Subgroup     string `json:"subgroup,omitempty"` // empty = whole group
	ClassName    string `json:"class_name"`
	Spec         string `json:"spec,omitempty"` // лаб, пр, лек
	Weekday      int    `json:"weekday"`        // 1 = Monday .. 7 = Sunday
	StartsAt     string `json:"starts_at"`      // HH:MM
	EndsAt       string `json:"ends_at"`        // HH:MM
	Campus       string `json:"campus,omitempty"`
	Room         string `json:"room,omitempty"`
	EmployeeID   string `json:"employee_id,omitempty"`
	EmployeeName string `json:"employee_name,omitempty"`
	CachedAt     int64  `json:"cached_at"`
}

// Employee is a staff member record.
type Employee struct {
	ID           string `json:"id"`
	Organization string `json:"organization"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Patronymic   string `json:"patronymic,omitempty"`
	Position     string `json:"position,omitempty"`
	Department   string `json:"department,omitempty"`
	Campus       string `json:"campus,omitempty"`
	Room         string `json:"room,omitempty"`
	CachedAt     int64  `json:"cached_at"`
}

// FullName renders the employee's name in "last first patronymic" order,
// skipping empty parts.
func (e *Employee) FullName() string {
	out := e.LastName
	if e.FirstName != "" {
		if out != "" {
			out += " "
		}
		out += e.FirstName
	}
	if e.Patronymic != "" {
		if out != "" {
			out += " "
		}
		out += e.Patronymic
	}
	return out
}
