package types

// Header is the fixed column order of the exported CSV.
var Header = []string{"Name", "Headline", "Location", "Link", "Website", "Phone", "Address", "E-mail", "Twitter"}

// Connection represents the data scraped for a single connection.
// Name and Link are always set; every other field is empty when the
// profile does not expose it.
type Connection struct {
	Name     string
	Headline string
	Location string
	Link     string
	Website  string
	Phone    string
	Address  string
	Email    string
	Twitter  string
}

// Record returns the connection's values in Header order.
func (c Connection) Record() []string {
	return []string{
		c.Name,
		c.Headline,
		c.Location,
		c.Link,
		c.Website,
		c.Phone,
		c.Address,
		c.Email,
		c.Twitter,
	}
}

// Contact holds the fields shown on a profile's contact-info view.
type Contact struct {
	Website string
	Phone   string
	Address string
	Email   string
	Twitter string
}

// Profile holds the fields read from the profile top card.
type Profile struct {
	Name     string
	Headline string
	Location string
}

// NewConnection assembles a row from the pieces gathered on the two views.
func NewConnection(link string, p Profile, c Contact) Connection {
	return Connection{
		Name:     p.Name,
		Headline: p.Headline,
		Location: p.Location,
		Link:     link,
		Website:  c.Website,
		Phone:    c.Phone,
		Address:  c.Address,
		Email:    c.Email,
		Twitter:  c.Twitter,
	}
}
