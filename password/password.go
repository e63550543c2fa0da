// Package password is the password-data builder collaborator (§6 external
// interfaces): it validates the level-1/level-2 password discipline and
// reports which encryption levels a segment's identity section should
// claim. Actual key derivation/encryption is out of scope (§1) and is left
// to whatever real collaborator a caller wires in behind this package's
// validation.
package password

import "github.com/msel-source/mefwriter/errs"

// Data is the validated outcome of supplying level-1/level-2 passwords: the
// encryption flags a segment's identity section records (§4.1 "password
// discipline").
type Data struct {
	Level1Encrypted bool
	Level2Encrypted bool
}

// Build validates level1/level2 and returns the resulting Data. A level-2
// password requires a level-1 password, and the two must differ; either
// violation is ErrPasswordPolicyViolated.
func Build(level1, level2 string) (Data, error) {
	if level2 != "" && level1 == "" {
		return Data{}, errs.ErrPasswordPolicyViolated
	}
	if level1 != "" && level1 == level2 {
		return Data{}, errs.ErrPasswordPolicyViolated
	}

	return Data{
		Level1Encrypted: level1 != "",
		Level2Encrypted: level2 != "",
	}, nil
}
