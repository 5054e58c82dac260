package address

import (
	"strings"

	"github.com/noah-isme/toko-storefront/internal/common"
)

// SupportedCountries lists the ISO 3166-1 alpha-2 codes the store ships to.
var SupportedCountries = []string{"PL", "DE", "CZ", "SK", "LT", "UA", "GB", "FR"}

func init() { common.RegisterSetValidation("country", SupportedCountries) }

// Address is a shipping address, either saved on the account or entered ad hoc.
type Address struct {
	ID           string `json:"id,omitempty"`
	Country      string `json:"country" validate:"required,country"`
	City         string `json:"city" validate:"required,max=100"`
	FirstName    string `json:"firstName" validate:"required,max=100"`
	LastName     string `json:"lastName" validate:"required,max=100"`
	PostalCode   string `json:"postalCode" validate:"required,max=20"`
	Street       string `json:"street" validate:"required,max=200"`
	PhoneNumber  string `json:"phoneNumber" validate:"required,len=9,number"`
	AddressLine1 string `json:"addressLine1" validate:"max=200"`
	AddressLine2 string `json:"addressLine2" validate:"max=200"`
}

// Validate checks every address field. It returns *common.ValidationError on failure.
func Validate(a Address) error {
	return common.ValidateStruct(normalise(a))
}

// Valid reports whether the address passes field validation.
func Valid(a Address) bool {
	return Validate(a) == nil
}

func normalise(a Address) Address {
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	a.City = strings.TrimSpace(a.City)
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Street = strings.TrimSpace(a.Street)
	a.PhoneNumber = strings.TrimSpace(a.PhoneNumber)
	a.AddressLine1 = strings.TrimSpace(a.AddressLine1)
	a.AddressLine2 = strings.TrimSpace(a.AddressLine2)
	return a
}

// Draft is the address held by a checkout in progress. It remembers which saved
// address it was populated from and whether any field was edited since.
type Draft struct {
	Address Address `json:"address"`
	SavedID string  `json:"savedId,omitempty"`
	Dirty   bool    `json:"dirty"`
}

// UseSaved populates the draft from a saved address and clears the dirty flag.
func (d *Draft) UseSaved(a Address) {
	d.Address = normalise(a)
	d.SavedID = a.ID
	d.Dirty = false
}

// Edit replaces the address fields. When the draft came from a saved address
// and any field changed, the draft becomes dirty and is submitted as a new address.
func (d *Draft) Edit(fields Address) {
	next := normalise(fields)
	next.ID = d.Address.ID
	if next != d.Address {
		d.Dirty = true
	}
	d.Address = next
}

// IsEmpty reports whether nothing has been entered yet.
func (d Draft) IsEmpty() bool {
	return d.Address == (Address{})
}

// Validate validates the current address fields.
func (d Draft) Validate() error {
	if d.IsEmpty() {
		return &common.ValidationError{Fields: map[string]string{"address": "is required"}}
	}
	return Validate(d.Address)
}

// SubmissionID returns the saved address id to reuse, or nil when the server
// must assign a fresh identifier.
func (d Draft) SubmissionID() *string {
	if d.SavedID == "" || d.Dirty {
		return nil
	}
	id := d.SavedID
	return &id
}

// Request is the address payload of an order submission.
type Request struct {
	ID           *string `json:"id"`
	Country      string  `json:"country"`
	City         string  `json:"city"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	PostalCode   string  `json:"postalCode"`
	Street       string  `json:"street"`
	PhoneNumber  string  `json:"phoneNumber"`
	AddressLine1 string  `json:"addressLine1"`
	AddressLine2 string  `json:"addressLine2"`
}

// SubmissionRequest builds the address payload sent with the order.
func (d Draft) SubmissionRequest() Request {
	a := d.Address
	return Request{
		ID:           d.SubmissionID(),
		Country:      a.Country,
		City:         a.City,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		PostalCode:   a.PostalCode,
		Street:       a.Street,
		PhoneNumber:  a.PhoneNumber,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
	}
}
