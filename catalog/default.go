package catalog

const DefaultVersion = "1.0"

// Default returns the built-in question set.
func Default() *Catalog {
	c, err := New(DefaultVersion, defaultQuestions())
	if err != nil {
		panic("catalog: invalid built-in catalog: " + err.Error())
	}
	return c
}

func defaultQuestions() []Question {
	return []Question{
		{
			ID:          "top_values",
			Kind:        KindMultiSelect,
			Text:        "Select your top 3 core values:",
			Constraints: Constraints{MaxSelections: 3},
			Options: []Option{
				{"integrity", "Integrity"},
				{"creativity", "Creativity"},
				{"family", "Family"},
				{"growth", "Growth"},
				{"freedom", "Freedom"},
				{"compassion", "Compassion"},
				{"achievement", "Achievement"},
				{"wisdom", "Wisdom"},
				{"connection", "Connection"},
				{"courage", "Courage"},
			},
		},
		{
			ID:   "cultural_mode",
			Kind: KindSingleSelect,
			Text: "Which cultural/spiritual lens would you like for your Oriki?",
			Options: []Option{
				{"yoruba_inspired", "Yoruba-Inspired"},
				{"secular", "Secular"},
				{"turkish", "Turkish"},
				{"biblical", "Biblical"},
			},
		},
		{
			ID:   "pronouns",
			Kind: KindSingleSelect,
			Text: "In your praise poetry, you will be celebrated as:",
			Options: []Option{
				{"he_him", "He/Him"},
				{"she_her", "She/Her"},
				{"they_them", "They/Them"},
				{NameOnly, "Name Only (we'll ask for your name next)"},
			},
		},
		{
			ID:   "greatest_strength",
			Kind: KindSingleSelect,
			Text: "What is your greatest strength?",
			Options: []Option{
				{"leadership", "Leadership"},
				{"empathy", "Empathy"},
				{"resilience", "Resilience"},
				{"creativity", "Creativity"},
				{"analytical_thinking", "Analytical Thinking"},
				{"communication", "Communication"},
				{"patience", "Patience"},
				{"adaptability", "Adaptability"},
			},
		},
		{
			ID:   "aspirational_trait",
			Kind: KindSingleSelect,
			Text: "What quality do you aspire to embody more?",
			Options: []Option{
				{"confidence", "Confidence"},
				{"peace", "Peace"},
				{"boldness", "Boldness"},
				{"wisdom", "Wisdom"},
				{"joy", "Joy"},
				{"influence", "Influence"},
				{"authenticity", "Authenticity"},
				{"discipline", "Discipline"},
			},
		},
		{
			ID:   "metaphor_archetype",
			Kind: KindSingleSelect,
			Text: "Which metaphor resonates most with you?",
			Options: []Option{
				{"mountain", "The Mountain"},
				{"river", "The River"},
				{"flame", "The Flame"},
				{"tree", "The Tree"},
				{"storm", "The Storm"},
				{"sun", "The Sun"},
				{"bridge", "The Bridge"},
				{"garden", "The Garden"},
			},
		},
		{
			ID:   "energy_style",
			Kind: KindSingleSelect,
			Text: "How would you describe your energy?",
			Options: []Option{
				{"charismatic", "Charismatic"},
				{"grounded", "Grounded/Natural"},
				{"visionary", "Visionary"},
				{"healer", "Healer"},
				{"warrior", "Warrior"},
				{"sage", "Sage"},
			},
		},
		{
			ID:   "life_focus",
			Kind: KindSingleSelect,
			Text: "What is your primary life focus right now?",
			Options: []Option{
				{"career", "Career"},
				{"parenting", "Parenting"},
				{"relationships", "Love/Relationships"},
				{"health", "Health"},
				{"spirituality", "Spirituality"},
				{"creative_expression", "Creative Expression"},
			},
		},
		{
			ID:          "free_write_letter",
			Kind:        KindFreeText,
			Text:        "What words do you need spoken over your life right now?",
			Constraints: Constraints{MaxLength: DefaultMaxLength, MinLength: DefaultMinLength},
			Placeholder: "Share your thoughts about how you want to impact the world and be remembered...",
		},
	}
}
