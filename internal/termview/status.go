package termview

import (
	"fmt"

	"github.com/fieldscan/sonarscope/internal/scope"
)

// statusLine formats the single-row header above the canvas.
func statusLine(st scope.State) string {
	return fmt.Sprintf("sweep %3d°  trail %d  samples %d  dropped %d",
		st.Angle, len(st.Trail), st.Samples, st.Malformed+st.OutOfArc)
}
