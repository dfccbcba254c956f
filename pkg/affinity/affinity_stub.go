//go:build !linux

package affinity

import (
	"fmt"

	gperrors "github.com/vnykmshr/gopin/pkg/common/errors"
)

func pin(cpu int) error {
	return fmt.Errorf("affinity: pin to cpu %d: %w", cpu, gperrors.ErrUnsupported)
}
