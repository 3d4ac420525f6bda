package tethys

import (
	"fmt"
	"sort"
)

// DefaultBaseURL is the Tethys database root.
const DefaultBaseURL = "https://tethys.pnnl.gov"

// TagSubtags maps each broad research category (tag) to its specific
// subcategories (subtags). One remote data file exists per tag/subtag pair.
// Up-to-date as of August 4, 2018.
var TagSubtags = map[string][]string{
	"stressor": {"chemicals", "dynamic-device", "emf", "energy-removal",
		"lighting", "noise", "static-device"},
	"receptor": {"bats", "benthic-invertebrates", "birds", "ground-nesting-birds",
		"passerines", "raptors", "seabirds", "shorebirds", "waterfowl",
		"ecosystem", "fish", "marine-mammals", "sea-turtles",
		"terrestrial-mammals", "farfield-environment", "nearfield-habitat",
		"socio-economics", "aesthetics", "climate-change", "fishing",
		"legal-and-policy", "navigation", "recreation", "stakeholder-engagement"},
	"technology-type": {"marine-energy-general", "riverine", "ocean-current",
		"otec", "salinity-gradient", "tidal", "wave", "wind-energy-general",
		"land-based-wind", "offshore-wind"},
	"interactions": {"attraction", "avoidance", "changes-sediment-transport",
		"changes-water-quality", "collisionevasion", "entrapment"},
}

// RemoteFile describes one file the remote source can serve.
type RemoteFile struct {
	ID     string `json:"id"` // "{tag}-{subtag}"
	Tag    string `json:"tag"`
	Subtag string `json:"subtag"`
	URL    string `json:"url"` // first listing page
}

// Catalog returns the full set of remote files, sorted by identifier so
// callers iterate deterministically.
func Catalog(baseURL string) []RemoteFile {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	var files []RemoteFile
	for tag, subtags := range TagSubtags {
		for _, subtag := range subtags {
			files = append(files, RemoteFile{
				ID:     fmt.Sprintf("%s-%s", tag, subtag),
				Tag:    tag,
				Subtag: subtag,
				URL:    PageURL(baseURL, tag, subtag, 0),
			})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	return files
}

// PageURL builds the URL for a tag/subtag listing page. Pages are
// zero-based: page 0 has no suffix, later pages carry "?page=N".
func PageURL(baseURL, tag, subtag string, page int) string {
	suffix := ""
	if page > 0 {
		suffix = fmt.Sprintf("?page=%d", page)
	}
	return fmt.Sprintf("%s/%s/%s%s", baseURL, tag, subtag, suffix)
}
