package compute

// Image is a machine image usable as a provisioning template or produced by
// a snapshot. Immutable once mapped.
type Image struct {
	ID   string
	Name string
}

// Location is a provider datacenter.
type Location struct {
	ID      string
	Name    string
	Country string
}

// SizeSpec describes a server plan. GoGrid has no sizes endpoint; the
// catalog below mirrors its published plans.
type SizeSpec struct {
	ID          string
	Name        string
	RAM         int // MB
	Disk        int // GB
	Bandwidth   int // GB/month, 0 when the provider does not publish it
	HourlyPrice float64
}

var sizeCatalog = []SizeSpec{
	{ID: "512MB", Name: "512MB", RAM: 512, Disk: 30, HourlyPrice: 0.095},
	{ID: "1GB", Name: "1GB", RAM: 1024, Disk: 60, HourlyPrice: 0.19},
	{ID: "2GB", Name: "2GB", RAM: 2048, Disk: 120, HourlyPrice: 0.38},
	{ID: "4GB", Name: "4GB", RAM: 4096, Disk: 240, HourlyPrice: 0.76},
	{ID: "8GB", Name: "8GB", RAM: 8192, Disk: 480, HourlyPrice: 1.52},
}

// Sizes returns the static plan catalog. The returned slice is a copy.
func Sizes() []SizeSpec {
	out := make([]SizeSpec, len(sizeCatalog))
	copy(out, sizeCatalog)
	return out
}

// SizeByID looks up a plan by its identifier.
func SizeByID(id string) (SizeSpec, bool) {
	for _, s := range sizeCatalog {
		if s.ID == id {
			return s, true
		}
	}
	return SizeSpec{}, false
}
