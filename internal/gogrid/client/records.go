package client

// Wire record types for the list-shaped endpoints. Identifier fields are
// decoded as `any`: the API emits them as JSON numbers on some endpoints
// and strings on others, and a server record fresh from a provisioning call
// has no id at all. The entity mapper owns the coercion.

// NamedField is the nested {id, name} object the API uses for enum-like
// attributes such as server state and RAM plan.
type NamedField struct {
	ID   any    `json:"id"`
	Name string `json:"name"`
}

// IPField is the nested address object attached to server records.
type IPField struct {
	ID any    `json:"id"`
	IP string `json:"ip"`
}

// ServerRecord is one entry of a server list or provisioning response.
type ServerRecord struct {
	ID        any        `json:"id"`
	Name      string     `json:"name"`
	State     NamedField `json:"state"`
	RAM       NamedField `json:"ram"`
	IP        IPField    `json:"ip"`
	IsSandbox string     `json:"isSandbox"` // "true"/"false" on the wire
}

// PasswordRecord is one entry of the support password list.
type PasswordRecord struct {
	Password string `json:"password"`
	Server   struct {
		ID any `json:"id"`
	} `json:"server"`
}

// IPRecord is one entry of the grid IP list.
type IPRecord struct {
	ID any    `json:"id"`
	IP string `json:"ip"`
}

// ImageRecord is one entry of an image list or image save response.
type ImageRecord struct {
	ID           any    `json:"id"`
	FriendlyName string `json:"friendlyName"`
}

// DatacenterRecord is one entry of the ip.datacenter lookup list.
type DatacenterRecord struct {
	ID   any    `json:"id"`
	Name string `json:"name"`
}
