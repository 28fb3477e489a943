package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FlowIDs identifies a hosted flow.
type FlowIDs struct {
	LangflowID string `json:"langflow_id"`
	FlowID     string `json:"flow_id"`
}

// LoadFlowFile reads the flow identifiers from a JSON file:
//
//	{"langflow_id": "...", "flow_id": "..."}
func LoadFlowFile(path string) (FlowIDs, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return FlowIDs{}, fmt.Errorf("failed to read flow file %s: %w", path, err)
	}
	var ids FlowIDs
	if err := json.Unmarshal(data, &ids); err != nil {
		return FlowIDs{}, fmt.Errorf("failed to parse flow file %s: %w", path, err)
	}
	if ids.LangflowID == "" || ids.FlowID == "" {
		return FlowIDs{}, fmt.Errorf("flow file %s: langflow_id and flow_id are required", path)
	}
	return ids, nil
}
