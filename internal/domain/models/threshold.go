package models

import (
	"encoding/json"
	"fmt"
)

// Band is the [Low, High] percentile band of one dimension in one cohort.
type Band struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Below reports a present value strictly under the band.
func (b Band) Below(v NullFloat) bool { return v.Valid && v.Float64 < b.Low }

// Above reports a present value strictly over the band.
func (b Band) Above(v NullFloat) bool { return v.Valid && v.Float64 > b.High }

// Contains reports a present value inside the closed band.
func (b Band) Contains(v NullFloat) bool {
	return v.Valid && v.Float64 >= b.Low && v.Float64 <= b.High
}

// DimensionBands holds one band per dimension, indexed by Dimension.
type DimensionBands [NumDimensions]Band

func (b DimensionBands) MarshalJSON() ([]byte, error) {
	m := make(map[string]Band, NumDimensions)
	for _, d := range Dimensions() {
		m[d.String()] = b[d]
	}
	return json.Marshal(m)
}

func (b *DimensionBands) UnmarshalJSON(data []byte) error {
	var m map[string]Band
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*b = DimensionBands{}
	for k, v := range m {
		d, err := ParseDimension(k)
		if err != nil {
			return err
		}
		b[d] = v
	}
	return nil
}

// BandSet is the immutable set of bands for one cohort, computed once per
// run and passed by value to every consumer.
type BandSet struct {
	Cohort       Cohort         `json:"cohort"`
	Bands        DimensionBands `json:"bands"`
	RevenueDrop  float64        `json:"revenue_drop"`
	RevenueBoost float64        `json:"revenue_boost"`
}

// Band returns the band of a dimension.
func (s BandSet) Band(d Dimension) Band { return s.Bands[d] }

// Validate checks every band is ordered.
func (s BandSet) Validate() error {
	for _, d := range Dimensions() {
		b := s.Bands[d]
		if b.Low > b.High {
			return fmt.Errorf("%s band inverted: low %.4f > high %.4f", d, b.Low, b.High)
		}
	}
	if s.RevenueDrop > s.RevenueBoost {
		return fmt.Errorf("revenue thresholds inverted: drop %.4f > boost %.4f", s.RevenueDrop, s.RevenueBoost)
	}
	return nil
}
