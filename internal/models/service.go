package models

// ServiceRecord is one monitored endpoint as reported by the status API.
// Status and LastCheck are computed server-side and only displayed.
type ServiceRecord struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	URL       string `json:"url" yaml:"url"`
	Status    string `json:"status" yaml:"status"`
	LastCheck string `json:"lastCheck" yaml:"lastCheck"`
}

// ServiceList is the body of GET /service
type ServiceList struct {
	Services []ServiceRecord `json:"services"`
}

// AddServiceRequest is the body of POST /service
type AddServiceRequest struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// AddServiceResponse is what the status API answers to POST /service.
// The dashboard re-fetches the list instead of trusting it.
type AddServiceResponse struct {
	ID string `json:"id"`
}

// Equal reports whether two snapshots hold the same records in the same order.
func Equal(a, b []ServiceRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
