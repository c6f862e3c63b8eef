package sweep

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CodecRoot returns the directory the external tool writes job artifacts
// under. The layout is an external contract shared with the evaluation
// pipeline and must not change shape:
//
//	{bitstreamDir}/split-inference-video/cfp_codec{experiment}/{datasetTag}/
func CodecRoot(bitstreamDir, experiment, datasetTag string) string {
	return filepath.Join(bitstreamDir, "split-inference-video", "cfp_codec"+experiment, datasetTag)
}

// OutputDir returns the per-job output subdirectory for a combination.
// Distinct per job so concurrent jobs never share a write path: file-matched
// combinations use the bitstream base name, which stays unique when several
// density variants share one (sequence, QP) pair.
func OutputDir(codecRoot string, c Combination) string {
	if c.Bitstream != "" {
		base := filepath.Base(c.Bitstream)
		return filepath.Join(codecRoot, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	return filepath.Join(codecRoot, fmt.Sprintf("%s_qp%s", c.Sequence, c.QP))
}
