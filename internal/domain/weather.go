package domain

// ForecastDay is one sampled day of the multi-day forecast.
type ForecastDay struct {
	Day         string `json:"day"`
	Temperature int    `json:"temperature"`
	Condition   string `json:"condition"`
}

// Weather is the payload returned by the weather proxy. Temperatures are in
// Celsius and WindSpeed in km/h.
type Weather struct {
	Location    string        `json:"location"`
	Temperature int           `json:"temperature"`
	Condition   string        `json:"condition"`
	Humidity    int           `json:"humidity"`
	WindSpeed   int           `json:"windSpeed"`
	Forecast    []ForecastDay `json:"forecast"`
}
