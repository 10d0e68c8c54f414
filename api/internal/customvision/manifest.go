package customvision

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RegionManifest maps label → image name (without .jpg) → [left, top, width, height],
// all normalised to 0..1.
type RegionManifest map[string]map[string][]float64

func LoadRegionManifest(path string) (RegionManifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRegionManifest(b)
}

func ParseRegionManifest(b []byte) (RegionManifest, error) {
	var m RegionManifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse region manifest: %w", err)
	}
	for label, images := range m {
		for name, box := range images {
			if len(box) != 4 {
				return nil, fmt.Errorf("region %s/%s: want 4 numbers, got %d", label, name, len(box))
			}
			for _, v := range box {
				if v < 0 || v > 1 {
					return nil, fmt.Errorf("region %s/%s: %v outside 0..1", label, name, box)
				}
			}
		}
	}
	return m, nil
}

// Labels returns manifest labels in sorted order.
func (m RegionManifest) Labels() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Entries reads <dir>/<label>/<name>.jpg for every image under label and
// attaches its region to tagID.
func (m RegionManifest) Entries(dir, label, tagID string) ([]ImageEntry, error) {
	images, ok := m[label]
	if !ok {
		return nil, fmt.Errorf("label %q not in manifest", label)
	}
	names := make([]string, 0, len(images))
	for n := range images {
		names = append(names, n)
	}
	sort.Strings(names)

	entries := make([]ImageEntry, 0, len(names))
	for _, n := range names {
		p := filepath.Join(dir, label, n+".jpg")
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("missing image: %s: %w", p, err)
		}
		box := images[n]
		entries = append(entries, ImageEntry{
			Name:     n,
			Contents: b,
			Regions:  []Region{{TagID: tagID, Left: box[0], Top: box[1], Width: box[2], Height: box[3]}},
		})
	}
	return entries, nil
}

// TagDir maps a tag name to its image folder and file prefix:
// "Japanese Cherry" → ("Japanese_Cherry", "japanese_cherry").
func TagDir(tag string) (dir, prefix string) {
	dir = strings.ReplaceAll(strings.TrimSpace(tag), " ", "_")
	return dir, strings.ToLower(dir)
}

// ClassificationEntries loads <root>/<Tag_Dir>/<prefix>_<n>.jpg in numeric
// order and tags every file with tagID.
func ClassificationEntries(root, tag, tagID string) ([]ImageEntry, error) {
	dir, prefix := TagDir(tag)
	matches, err := filepath.Glob(filepath.Join(root, dir, prefix+"_*.jpg"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no images for tag %q under %s", tag, filepath.Join(root, dir))
	}
	sort.Slice(matches, func(i, j int) bool {
		return imageNumber(matches[i], prefix) < imageNumber(matches[j], prefix)
	})

	entries := make([]ImageEntry, 0, len(matches))
	for _, p := range matches {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ImageEntry{Name: filepath.Base(p), Contents: b, TagIDs: []string{tagID}})
	}
	return entries, nil
}

func imageNumber(path, prefix string) int {
	s := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), prefix+"_"), ".jpg")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 1 << 30
	}
	return n
}
