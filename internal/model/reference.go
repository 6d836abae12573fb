package model

// Tech is a Syncro user that can own tickets and timer entries.
type Tech struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Customer is a Syncro customer record.
type Customer struct {
	ID           int64  `json:"id"`
	BusinessName string `json:"business_name"`
}

// Contact is a person attached to a customer.
type Contact struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
}

// Product is a billable item; labor types map onto products.
type Product struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Archived bool   `json:"archived,omitempty"`
}

// Reference is the lookup data fetched once from Syncro and cached on disk.
type Reference struct {
	Techs      []Tech     `json:"techs"`
	IssueTypes []string   `json:"issue_types"`
	Customers  []Customer `json:"customers"`
	Contacts   []Contact  `json:"contacts"`
	Statuses   []string   `json:"statuses"`
	Products   []Product  `json:"products"`
}

// TechName returns the display name of the tech with the given id.
func (r *Reference) TechName(id int64) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, t := range r.Techs {
		if t.ID == id {
			return t.Name, t.Name != ""
		}
	}
	return "", false
}
