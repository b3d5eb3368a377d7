package index

import "localagent/internal/model"

// DetectChanged filters discovered files down to those requiring
// re-embedding. force and full mode select everything; incremental
// keeps a file when its path is unknown to the committed table or its
// fingerprint moved. Pure, no side effects.
func DetectChanged(discovered []*model.FileRecord, committed map[string]string, mode Mode, force bool) []*model.FileRecord {
	if force || mode == ModeFull {
		out := make([]*model.FileRecord, len(discovered))
		copy(out, discovered)
		return out
	}
	var out []*model.FileRecord
	for _, file := range discovered {
		prev, ok := committed[file.Path]
		if !ok || prev != file.SHA256 {
			out = append(out, file)
		}
	}
	return out
}
