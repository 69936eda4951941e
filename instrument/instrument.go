// Package instrument provides the static instrument configuration:
// subarray and array element identity tables as agreed with the
// acquisition system, embedded at build time.
package instrument

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed resources/subarrays.json resources/array_elements.json
var resources embed.FS

// Subarray is one subarray definition.
type Subarray struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Site            string `json:"site"`
	ArrayElementIDs []int  `json:"array_element_ids"`
}

// ArrayElement is one array element (telescope or auxiliary instrument).
type ArrayElement struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Camera string `json:"camera"`
}

var (
	loadOnce sync.Once
	loadErr  error

	subarraysByID     map[int]Subarray
	arrayElementsByID map[int]ArrayElement
)

func load() error {
	loadOnce.Do(func() {
		var subarrays struct {
			Subarrays []Subarray `json:"subarrays"`
		}
		if loadErr = unmarshalResource("resources/subarrays.json", &subarrays); loadErr != nil {
			return
		}

		var elements struct {
			ArrayElements []ArrayElement `json:"array_elements"`
		}
		if loadErr = unmarshalResource("resources/array_elements.json", &elements); loadErr != nil {
			return
		}

		subarraysByID = make(map[int]Subarray, len(subarrays.Subarrays))
		for _, s := range subarrays.Subarrays {
			subarraysByID[s.ID] = s
		}
		arrayElementsByID = make(map[int]ArrayElement, len(elements.ArrayElements))
		for _, ae := range elements.ArrayElements {
			arrayElementsByID[ae.ID] = ae
		}
	})
	return loadErr
}

func unmarshalResource(name string, v any) error {
	data, err := resources.ReadFile(name)
	if err != nil {
		return fmt.Errorf("instrument: read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("instrument: parse %s: %w", name, err)
	}
	return nil
}

// SubarrayByID looks up a subarray definition.
func SubarrayByID(id int) (Subarray, error) {
	if err := load(); err != nil {
		return Subarray{}, err
	}
	s, ok := subarraysByID[id]
	if !ok {
		return Subarray{}, fmt.Errorf("instrument: unknown subarray_id: %d", id)
	}
	return s, nil
}

// ArrayElementByID looks up an array element definition.
func ArrayElementByID(id int) (ArrayElement, error) {
	if err := load(); err != nil {
		return ArrayElement{}, err
	}
	ae, ok := arrayElementsByID[id]
	if !ok {
		return ArrayElement{}, fmt.Errorf("instrument: unknown ae_id: %d", id)
	}
	return ae, nil
}

// SubarrayDescription resolves a subarray into its member telescopes.
type SubarrayDescription struct {
	Name       string               `json:"name"`
	Site       string               `json:"site"`
	Telescopes map[int]ArrayElement `json:"telescopes"`
}

// BuildSubarrayDescription creates a SubarrayDescription from a subarray id.
// Every member array element must be known.
func BuildSubarrayDescription(subarrayID int) (*SubarrayDescription, error) {
	subarray, err := SubarrayByID(subarrayID)
	if err != nil {
		return nil, err
	}

	telescopes := make(map[int]ArrayElement, len(subarray.ArrayElementIDs))
	for _, aeID := range subarray.ArrayElementIDs {
		ae, err := ArrayElementByID(aeID)
		if err != nil {
			return nil, err
		}
		telescopes[aeID] = ae
	}

	return &SubarrayDescription{
		Name:       subarray.Name,
		Site:       subarray.Site,
		Telescopes: telescopes,
	}, nil
}

// CameraForTel returns the camera name for a telescope id.
func CameraForTel(telID int) (string, error) {
	ae, err := ArrayElementByID(telID)
	if err != nil {
		return "", err
	}
	return ae.Camera, nil
}
