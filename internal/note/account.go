package note

// Account is a note describing an account held with an organization. It
// carries the full organization accessor surface; account-specific fields
// stay in the raw metadata mapping.
type Account struct {
	orgMeta
}

var _ OrganizationLike = (*Account)(nil)

// NewAccount wraps an already loaded note.
func NewAccount(n *Note) *Account { return &Account{orgMeta{n}} }

// LoadAccount loads the file at path as an account.
func LoadAccount(path string, opts ...Option) (*Account, error) {
	n, err := Load(path, opts...)
	if err != nil {
		return nil, err
	}
	return NewAccount(n), nil
}
