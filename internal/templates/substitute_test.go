package templates

import (
	"reflect"
	"testing"
)

func TestSubstitute(t *testing.T) {
	vars := Vars{}.Set("nome", "Ana")
	got := Substitute("Hi {{nome}}, code {{x}}", vars)
	if got != "Hi Ana, code {{x}}" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestSubstituteMissingValueKeepsToken(t *testing.T) {
	vars := Vars{}.SetMissing("numero_contrato").Set("nome", "Ana")
	got := Substitute("{{numero_contrato}} - {{nome}}", vars)
	if got != "{{numero_contrato}} - Ana" {
		t.Fatalf("missing variable must round-trip unchanged, got %q", got)
	}
}

func TestSubstituteGlobalAndExtraneous(t *testing.T) {
	vars := Vars{}.Set("nome", "Ana").Set("ignorado", "x")
	got := Substitute("{{nome}} e {{nome}}", vars)
	if got != "Ana e Ana" {
		t.Fatalf("expected global replacement, got %q", got)
	}
}

func TestSubstituteOrderDependence(t *testing.T) {
	// A value containing another variable's token is re-matched by the later
	// pass. Established behavior, kept deliberately.
	vars := Vars{}.Set("a", "{{b}}").Set("b", "final")
	if got := Substitute("{{a}}", vars); got != "final" {
		t.Fatalf("expected chained substitution, got %q", got)
	}
	reversed := Vars{}.Set("b", "final").Set("a", "{{b}}")
	if got := Substitute("{{a}}", reversed); got != "{{b}}" {
		t.Fatalf("expected single pass per key, got %q", got)
	}
}

func TestSubstituteEmptyInputs(t *testing.T) {
	if got := Substitute("", nil); got != "" {
		t.Fatalf("empty template should stay empty, got %q", got)
	}
	if got := Substitute("{{sem_fim", Vars{}.Set("sem_fim", "x")); got != "{{sem_fim" {
		t.Fatalf("unbalanced braces must stay literal, got %q", got)
	}
}

func TestExtractVariableNames(t *testing.T) {
	got := ExtractVariableNames("{{a}} {{b}} {{a}}")
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", got)
	}
	if got := ExtractVariableNames("sem placeholders"); got != nil {
		t.Fatalf("expected nil for plain text, got %v", got)
	}
}

func TestValidateRequiredVariables(t *testing.T) {
	res := ValidateRequiredVariables("{{nome}}", []string{"nome", "numero_contrato"})
	if res.Valid {
		t.Fatal("expected invalid result")
	}
	if !reflect.DeepEqual(res.Missing, []string{"numero_contrato"}) {
		t.Fatalf("expected missing numero_contrato, got %v", res.Missing)
	}

	res = ValidateRequiredVariables("{{nome}} {{numero_contrato}}", []string{"nome", "numero_contrato"})
	if !res.Valid || len(res.Missing) != 0 {
		t.Fatalf("expected valid result, got %+v", res)
	}
}

func TestValidateRequiredVariablesDefaultSet(t *testing.T) {
	res := ValidateRequiredVariables("Contrato {{numero_contrato}}: {{link_assinatura}}", nil)
	if !res.Valid {
		t.Fatalf("expected contract template to satisfy default set, got %+v", res)
	}
	res = ValidateRequiredVariables("Contrato {{numero_contrato}}", nil)
	if res.Valid || !reflect.DeepEqual(res.Missing, []string{"link_assinatura"}) {
		t.Fatalf("expected link_assinatura missing, got %+v", res)
	}
}
