package reconcile_test

import (
	"context"
	"fmt"

	"github.com/quay/cvssmerge/cvss"
	"github.com/quay/cvssmerge/reconcile"
	"github.com/quay/cvssmerge/selector"
)

func ExampleEngine_Evaluate() {
	ctx := context.Background()
	e := reconcile.New()
	in := selector.Input{
		{
			Vector: cvss.MustParse("CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"),
			Source: selector.Source{Entity: "NVD", Role: "CNA", Authority: "NVD"},
		},
		// An analyst determined the impact is limited.
		selector.Assessment(cvss.MustParse("CVSS:3.1/C:L/I:N/A:N"), selector.Lower),
	}
	r, err := e.Evaluate(ctx, "CVE-2024-0001", in)
	if err != nil {
		panic(err)
	}
	fmt.Println(r.Vector)
	fmt.Println(*r.Score, r.Severity.Label)
	fmt.Println(r.Stats.Get(selector.AssessmentsAttr))
	// Output:
	// CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N
	// 5.3 Medium
	// 1
}
