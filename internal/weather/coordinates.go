package weather

import "strings"

// regionalCentroid is used when a district/mandal pair is not in the table
var regionalCentroid = Coordinates{Lat: 16.5062, Lon: 80.6480}

var locationCoords = map[string]map[string]Coordinates{
	"NTR": {
		"IBRAHIMPATNAM":   {Lat: 16.5500, Lon: 80.7500},
		"A KONDURU":       {Lat: 16.6167, Lon: 80.8500},
		"CHANDARLAPADU":   {Lat: 16.4833, Lon: 80.5833},
		"GAMPALAGUDEM":    {Lat: 16.5833, Lon: 80.6167},
		"KANCHIKA CHERLA": {Lat: 16.4500, Lon: 80.6500},
		"TIRUVURU":        {Lat: 16.7667, Lon: 80.8333},
		"VEERULLAPADU":    {Lat: 16.4667, Lon: 80.6333},
	},
}

// ResolveCoordinates looks up a mandal, falling back to the regional centroid
func ResolveCoordinates(district, mandal string) Coordinates {
	mandals, ok := locationCoords[strings.ToUpper(strings.TrimSpace(district))]
	if !ok {
		return regionalCentroid
	}
	if c, ok := mandals[strings.ToUpper(strings.TrimSpace(mandal))]; ok {
		return c
	}
	return regionalCentroid
}
