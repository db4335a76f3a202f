package game

import "testing"

func TestActionCatalog(t *testing.T) {
	tests := []struct {
		kind           ActionKind
		cost           int
		claim          Character
		blockableBy    []Character
		requiresTarget bool
	}{
		{ActionIncome, 0, "", nil, false},
		{ActionForeignAid, 0, "", []Character{CharacterDuke}, false},
		{ActionTax, 0, CharacterDuke, nil, false},
		{ActionSteal, 0, CharacterCaptain, []Character{CharacterCaptain, CharacterAmbassador}, true},
		{ActionAssassinate, 3, CharacterAssassin, []Character{CharacterContessa}, true},
		{ActionExchange, 0, CharacterAmbassador, nil, false},
		{ActionCoup, 7, "", nil, true},
	}

	for _, tt := range tests {
		spec, ok := LookupAction(tt.kind)
		if !ok {
			t.Fatalf("%s missing from catalog", tt.kind)
		}
		if spec.Cost != tt.cost {
			t.Errorf("%s: cost %d, want %d", tt.kind, spec.Cost, tt.cost)
		}
		if spec.Claim != tt.claim {
			t.Errorf("%s: claim %q, want %q", tt.kind, spec.Claim, tt.claim)
		}
		if spec.RequiresTarget != tt.requiresTarget {
			t.Errorf("%s: requiresTarget %v, want %v", tt.kind, spec.RequiresTarget, tt.requiresTarget)
		}
		if len(spec.BlockableBy) != len(tt.blockableBy) {
			t.Errorf("%s: blockableBy %v, want %v", tt.kind, spec.BlockableBy, tt.blockableBy)
			continue
		}
		for i, ch := range tt.blockableBy {
			if spec.BlockableBy[i] != ch {
				t.Errorf("%s: blockableBy[%d] = %s, want %s", tt.kind, i, spec.BlockableBy[i], ch)
			}
		}
	}

	if _, ok := LookupAction("BRIBE"); ok {
		t.Fatal("unknown action found in catalog")
	}
}

func TestChallengeableAndBlockable(t *testing.T) {
	income, _ := LookupAction(ActionIncome)
	if income.Challengeable() || income.Blockable() {
		t.Fatal("income must be neither challengeable nor blockable")
	}
	coup, _ := LookupAction(ActionCoup)
	if coup.Challengeable() || coup.Blockable() {
		t.Fatal("coup must be neither challengeable nor blockable")
	}
	steal, _ := LookupAction(ActionSteal)
	if !steal.Challengeable() || !steal.Blockable() {
		t.Fatal("steal must be both challengeable and blockable")
	}
	if !steal.BlockableWith(CharacterAmbassador) || steal.BlockableWith(CharacterContessa) {
		t.Fatal("steal block characters wrong")
	}
}

func TestMustCoupAndCanAfford(t *testing.T) {
	p := &Player{Coins: 9}
	if MustCoup(p) {
		t.Fatal("9 coins must not force a coup")
	}
	p.Coins = 10
	if !MustCoup(p) {
		t.Fatal("10 coins must force a coup")
	}

	coup, _ := LookupAction(ActionCoup)
	p.Coins = 6
	if CanAfford(coup, p) {
		t.Fatal("6 coins cannot afford a coup")
	}
	p.Coins = 7
	if !CanAfford(coup, p) {
		t.Fatal("7 coins can afford a coup")
	}
}
