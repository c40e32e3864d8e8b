package op

import (
	"errors"

	"github.com/specialistvlad/opgrid/internal/comm"
	"github.com/specialistvlad/opgrid/internal/engineerr"
)

// Result codes broadcast by OnRoot so every rank fails the same way.
const (
	rootOK = iota
	rootConfiguration
	rootValidation
	rootIO
	rootFailure
)

func rootCode(err error) float64 {
	switch {
	case err == nil:
		return rootOK
	case errors.Is(err, engineerr.ErrConfiguration):
		return rootConfiguration
	case errors.Is(err, engineerr.ErrValidation):
		return rootValidation
	case errors.Is(err, engineerr.ErrIO):
		return rootIO
	default:
		return rootFailure
	}
}

func remoteError(code float64, what, where string) error {
	switch int(code) {
	case rootConfiguration:
		return engineerr.Configf("%s failed on %s", what, where)
	case rootValidation:
		return engineerr.Validationf("%s failed on %s", what, where)
	case rootIO:
		return engineerr.IO(errors.New("see the "+where+" log"), "%s failed on %s", what, where)
	default:
		return errors.New(what + " failed on " + where)
	}
}

// OnRoot runs fn on rank 0 only and broadcasts its values. Every rank
// returns the same values, or an error of the same kind when fn failed.
// It is collective.
func OnRoot(c comm.Communicator, what string, fn func() ([]float64, error)) ([]float64, error) {
	var header, values []float64
	var rootErr error
	if c.Rank() == 0 {
		values, rootErr = fn()
		header = []float64{rootCode(rootErr)}
	}

	header, err := c.Broadcast(0, header)
	if err != nil {
		return nil, err
	}
	if header[0] != rootOK {
		if rootErr != nil {
			return nil, rootErr
		}
		return nil, remoteError(header[0], what, "rank 0")
	}

	return c.Broadcast(0, values)
}

// Agree shares the outcome of a step every rank ran locally. It returns err
// unchanged on the ranks where it is set, and an error of the most severe
// kind seen on the others, so no rank goes on into a collective the failed
// ranks will never reach. It is collective.
func Agree(c comm.Communicator, what string, err error) error {
	worst, rerr := c.AllReduce(comm.Max, []float64{rootCode(err)})
	if err != nil {
		return err
	}
	if rerr != nil {
		return rerr
	}
	if worst[0] != rootOK {
		return remoteError(worst[0], what, "another rank")
	}
	return nil
}
