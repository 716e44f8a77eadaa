package domain

// EmployeeRole enumerates console operator roles.
type EmployeeRole string

const (
	EmployeeRoleAdmin      EmployeeRole = "ADMIN"
	EmployeeRoleManager    EmployeeRole = "MANAGER"
	EmployeeRoleSupport    EmployeeRole = "SUPPORT"
	EmployeeRoleTechnician EmployeeRole = "TECHNICIAN"
)

// Employee is a read-only entry from the staff directory.
type Employee struct {
	ID     string
	Name   string
	Email  string
	Role   EmployeeRole
	Active bool
}
