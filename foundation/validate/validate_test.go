package validate_test

import (
	"testing"

	"github.com/ardanlabs/fcoin/foundation/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type submit struct {
	Source      string `json:"source" validate:"required,hexadecimal"`
	Destination string `json:"destination" validate:"required"`
	Amount      uint64 `json:"amount"`
}

func Test_Check(t *testing.T) {
	t.Log("Given the need to validate request models.")
	{
		if err := validate.Check(submit{Source: "0xabcd", Destination: "0x01"}); err != nil {
			t.Fatalf("\t%s\tShould accept a valid model: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept a valid model.", success)

		err := validate.Check(submit{Source: "zz"})
		if !validate.IsFieldErrors(err) {
			t.Fatalf("\t%s\tShould reject an invalid model with field errors: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an invalid model with field errors.", success)

		fields := validate.GetFieldErrors(err).Fields()
		if _, exists := fields["destination"]; !exists {
			t.Fatalf("\t%s\tShould name fields by their json tag: %v", failed, fields)
		}
		t.Logf("\t%s\tShould name fields by their json tag.", success)

		if _, exists := fields["source"]; !exists {
			t.Fatalf("\t%s\tShould report the hexadecimal rule: %v", failed, fields)
		}
		t.Logf("\t%s\tShould report the hexadecimal rule.", success)
	}
}
