// Package models defines the shared data structures for field detection,
// corrections, site rules, and autofill profiles.
package models

// FieldType is the semantic category a form control is classified into.
// Closed set: extending it means adding a constant here plus matching
// patterns in pkg/patterns.
type FieldType string

const (
	FieldFirstName  FieldType = "firstName"
	FieldLastName   FieldType = "lastName"
	FieldFullName   FieldType = "fullName"
	FieldEmail      FieldType = "email"
	FieldPhone      FieldType = "phone"
	FieldStreet     FieldType = "street"
	FieldCity       FieldType = "city"
	FieldState      FieldType = "state"
	FieldZip        FieldType = "zip"
	FieldCountry    FieldType = "country"
	FieldCardNumber FieldType = "cardNumber"
	FieldCVV        FieldType = "cvv"
	FieldExpiryDate FieldType = "expiryDate"
	FieldCompany    FieldType = "company"
	FieldJobTitle   FieldType = "jobTitle"
	FieldWebsite    FieldType = "website"
	FieldLinkedin   FieldType = "linkedin"

	// Demographic and social tags carried over from the extension vocabulary.
	FieldDateOfBirth FieldType = "dateOfBirth"
	FieldGender      FieldType = "gender"
	FieldGithub      FieldType = "github"
	FieldTwitter     FieldType = "twitter"
)

// AllFieldTypes returns every known field type in a stable order.
func AllFieldTypes() []FieldType {
	return []FieldType{
		FieldFirstName,
		FieldLastName,
		FieldFullName,
		FieldEmail,
		FieldPhone,
		FieldStreet,
		FieldCity,
		FieldState,
		FieldZip,
		FieldCountry,
		FieldCardNumber,
		FieldCVV,
		FieldExpiryDate,
		FieldCompany,
		FieldJobTitle,
		FieldWebsite,
		FieldLinkedin,
		FieldDateOfBirth,
		FieldGender,
		FieldGithub,
		FieldTwitter,
	}
}

// IsValidFieldType checks whether t is a known field type.
func IsValidFieldType(t FieldType) bool {
	for _, ft := range AllFieldTypes() {
		if ft == t {
			return true
		}
	}
	return false
}

// SensitiveFieldTypes are the types the rules engine treats as payment or
// identity sensitive when a site rule restricts filling.
func SensitiveFieldTypes() []FieldType {
	return []FieldType{FieldCardNumber, FieldCVV, FieldExpiryDate}
}
