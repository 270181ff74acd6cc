package domain

// Service is one redeemable entry in the service catalog.
// Loaded from configuration; the redemption engine treats it as read-only.
type Service struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Cost    int64  `json:"cost"`
	Details string `json:"details,omitempty"`
}

// Catalog is the set of services currently offered for redemption.
type Catalog struct {
	Services []Service `json:"services"`
}

// Empty reports whether the catalog has no services configured.
func (c *Catalog) Empty() bool {
	return c == nil || len(c.Services) == 0
}

// Find returns the service with the given ID, or nil if absent.
func (c *Catalog) Find(id string) *Service {
	if c == nil {
		return nil
	}
	for i := range c.Services {
		if c.Services[i].ID == id {
			return &c.Services[i]
		}
	}
	return nil
}
