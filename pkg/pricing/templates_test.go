package pricing

import (
	"reflect"
	"testing"
)

func TestTemplateNames(t *testing.T) {
	want := []string{"ecommerce", "infoproduct", "saas"}
	if got := TemplateNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("TemplateNames() = %v, want %v", got, want)
	}
}

func TestTemplate(t *testing.T) {
	for _, name := range TemplateNames() {
		t.Run(name, func(t *testing.T) {
			in, ok := Template(name)
			if !ok {
				t.Fatalf("template %q not found", name)
			}
			for _, mode := range Modes {
				if r := Calculate(mode, in); !r.Valid {
					t.Fatalf("template %q fails in %s: %s", name, mode, r.Error)
				}
			}
		})
	}

	if _, ok := Template("  SaaS "); !ok {
		t.Fatalf("template lookup should ignore case and whitespace")
	}
	if _, ok := Template("lemonade-stand"); ok {
		t.Fatalf("unknown template reported as found")
	}
}

func TestTemplateReturnsCopy(t *testing.T) {
	first, _ := Template("saas")
	*first.PVS = 1
	first.Marketing.Amount = 1

	second, _ := Template("saas")
	if *second.PVS != 49.90 || second.Marketing.Amount != 2000 {
		t.Fatalf("modifying a returned template changed the preset: %+v", second)
	}
}
