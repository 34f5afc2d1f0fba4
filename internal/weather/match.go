package weather

import "strings"

// FindCity returns the first record whose city name equals name ignoring case
// and whose country code equals country exactly.
func FindCity(name, country string, records []WeatherRecord) (WeatherRecord, bool) {
	for _, r := range records {
		if r.CountryCode == country && strings.EqualFold(r.CityName, name) {
			return r, true
		}
	}
	return WeatherRecord{}, false
}
