package regcache

// Stats counts allocator activity since Start. Tests use the counters to pin
// cache behavior; the regtrace tool charts them.
type Stats struct {
	ScalarHits      int `json:"scalarHits"`
	ScalarMisses    int `json:"scalarMisses"`
	ScalarEvictions int `json:"scalarEvictions"`
	QuadHits        int `json:"quadHits"`
	QuadExtends     int `json:"quadExtends"`
	QuadMisses      int `json:"quadMisses"`
	QuadEvictions   int `json:"quadEvictions"`
}

// Stats returns a snapshot of the counters.
func (c *FPURegCache) Stats() Stats {
	return c.stats
}
