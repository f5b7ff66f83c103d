package note

import "time"

// Person is a note describing an individual contact.
type Person struct {
	*Note
}

// NewPerson wraps an already loaded note.
func NewPerson(n *Note) *Person { return &Person{n} }

// LoadPerson loads the file at path as a person.
func LoadPerson(path string, opts ...Option) (*Person, error) {
	n, err := Load(path, opts...)
	if err != nil {
		return nil, err
	}
	return NewPerson(n), nil
}

// FullName returns the person's full name, falling back to the note title.
func (p *Person) FullName() string { return p.strOr("full_name", p.Title()) }

// Emails returns every listed email address, empty when absent.
func (p *Person) Emails() []string { return p.strs("emails") }

// Email returns the first listed email address, "" when none are listed.
func (p *Person) Email() string { return first(p.Emails()) }

// Phones returns every listed phone number, empty when absent.
func (p *Person) Phones() []string { return p.strs("phones") }

// Phone returns the first listed phone number, "" when none are listed.
func (p *Person) Phone() string { return first(p.Phones()) }

// Organization returns the raw organization link value, "" when absent.
func (p *Person) Organization() string { return p.str("organization") }

// OrganizationID returns the id the organization link points at.
func (p *Person) OrganizationID() string { return p.LinkID("organization") }

// Role returns the person's role at their organization, "" when absent.
func (p *Person) Role() string { return p.str("role") }

// Birthday returns the person's birthday, reporting absence through ok.
func (p *Person) Birthday() (time.Time, bool) { return p.timeVal("birthday") }

// Social returns social profile handles keyed by network name.
func (p *Person) Social() map[string]string { return p.strMap("social") }

// Relationships returns the raw relationship link values, empty when absent.
func (p *Person) Relationships() []string { return p.strs("relationships") }

// RelationshipIDs returns the ids the relationship links point at.
func (p *Person) RelationshipIDs() []string { return p.LinkIDs("relationships") }

// LastContact returns when the person was last contacted, reporting absence
// through ok.
func (p *Person) LastContact() (time.Time, bool) { return p.timeVal("last_contact") }

func first(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}
