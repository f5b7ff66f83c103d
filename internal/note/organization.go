package note

// OrganizationLike is satisfied by note subtypes carrying organization
// metadata: companies and the accounts held with them share one accessor
// surface.
type OrganizationLike interface {
	ID() string
	Type() string
	Name() string
	Website() string
	Industry() string
	Parent() string
	ParentID() string
	Subsidiaries() []string
	SubsidiaryIDs() []string
	Address() string
	Aliases() []string
	Tags() []string
}

// orgMeta implements the organization metadata accessors shared by
// Organization and Account.
type orgMeta struct {
	*Note
}

// Name returns the organization name, falling back to the note title.
func (o orgMeta) Name() string { return o.strOr("name", o.Title()) }

// Website returns the organization website, "" when absent.
func (o orgMeta) Website() string { return o.str("website") }

// Industry returns the industry tag, "" when absent.
func (o orgMeta) Industry() string { return o.str("industry") }

// Parent returns the raw parent link value, "" when absent.
func (o orgMeta) Parent() string { return o.str("parent") }

// ParentID returns the id the parent link points at.
func (o orgMeta) ParentID() string { return o.LinkID("parent") }

// Subsidiaries returns the raw subsidiary link values, empty when absent.
func (o orgMeta) Subsidiaries() []string { return o.strs("subsidiaries") }

// SubsidiaryIDs returns the ids the subsidiary links point at.
func (o orgMeta) SubsidiaryIDs() []string { return o.LinkIDs("subsidiaries") }

// Address returns the postal address, "" when absent.
func (o orgMeta) Address() string { return o.str("address") }

// Organization is a note describing a company or institution.
type Organization struct {
	orgMeta
}

var _ OrganizationLike = (*Organization)(nil)

// NewOrganization wraps an already loaded note.
func NewOrganization(n *Note) *Organization { return &Organization{orgMeta{n}} }

// LoadOrganization loads the file at path as an organization.
func LoadOrganization(path string, opts ...Option) (*Organization, error) {
	n, err := Load(path, opts...)
	if err != nil {
		return nil, err
	}
	return NewOrganization(n), nil
}
