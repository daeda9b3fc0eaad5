package graphdb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// graphFile is the on-disk layout: vertices and edges as flat objects whose
// internal fields are prefixed with an underscore
type graphFile struct {
	V []map[string]interface{} `json:"V"`
	E []map[string]interface{} `json:"E"`
}

// LoadGraphFile reads a JSON graph file into g
func LoadGraphFile(path string, g *Graph) error {
	log := logrus.WithFields(logrus.Fields{
		"component": "Loader",
		"path":      path,
	})
	f, err := os.Open(path)
	if err != nil {
		log.WithError(err).Error("Failed to open graph file")
		return err
	}
	defer f.Close()
	if err := ReadGraph(f, g); err != nil {
		log.WithError(err).Error("Failed to load graph file")
		return err
	}
	log.WithFields(logrus.Fields{
		"vertices": g.VertexCount(),
		"edges":    g.EdgeCount(),
	}).Info("Graph file loaded")
	return nil
}

// ReadGraph decodes {"V": [...], "E": [...]} from r and adds its contents to
// g. Vertices without an _id get a generated one.
func ReadGraph(r io.Reader, g *Graph) error {
	var doc graphFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decode graph: %w", err)
	}
	for i, raw := range doc.V {
		v := &Vertex{Properties: make(map[string]interface{}, len(raw))}
		for k, val := range raw {
			if k == fieldID {
				v.ID = idString(val)
				continue
			}
			v.Properties[k] = val
		}
		if _, err := g.AddVertex(v); err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
	}
	for i, raw := range doc.E {
		e := &Edge{Properties: make(map[string]interface{}, len(raw))}
		for k, val := range raw {
			switch k {
			case fieldOut:
				e.OutID = idString(val)
			case fieldIn:
				e.InID = idString(val)
			case fieldLabel:
				e.Label = idString(val)
			case fieldID:
				e.ID = idString(val)
			default:
				if strings.HasPrefix(k, "_") {
					continue
				}
				e.Properties[k] = val
			}
		}
		if err := g.AddEdge(e); err != nil {
			return fmt.Errorf("edge %d: %w", i, err)
		}
	}
	return nil
}
