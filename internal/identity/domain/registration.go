package domain

// RegistrationForm is the data entered to register a customer or create a staff user.
type RegistrationForm struct {
	FirstName       string
	LastName        string
	Email           string
	PhoneNumber     string
	AadharNumber    string
	DateOfBirth     string
	Address         string
	Password        string
	ConfirmPassword string
}
