package cases

// staticCases is the built-in catalog used when generation is disabled or
// fails. Keep at least one case per difficulty.
var staticCases = []ClinicalCase{
	{
		ID:                "case-001",
		Title:             "Acute chest pain",
		Difficulty:        Intermediate,
		Specialty:         "Cardiology",
		PublicDescription: "A 55-year-old man presents to the emergency department with crushing chest pain.",
		PatientProfile: PatientProfile{
			Name:           "John Miller",
			Age:            55,
			Gender:         "Male",
			Occupation:     "Accountant",
			ChiefComplaint: "Pain in the chest that spreads to the left arm.",
			Vitals: Vitals{
				HeartRate:        "105 bpm",
				BloodPressure:    "150/95 mmHg",
				Temperature:      "37.2°C",
				RespiratoryRate:  "22 /min",
				OxygenSaturation: "96%",
			},
		},
		HiddenScenario: `You are John Miller, 55. You have had intense chest pain ("like an elephant sitting on my chest") for one hour.
The pain radiates to the jaw and the left arm. You are sweating and nauseous.
History: smoker (20 pack-years), hypertension, type 2 diabetes. Your father died of a heart attack at 60.`,
		CorrectDiagnosis: "ST-elevation myocardial infarction",
	},
	{
		ID:                "case-002",
		Title:             "Fever and headache",
		Difficulty:        Beginner,
		Specialty:         "Infectious diseases",
		PublicDescription: "A 22-year-old student consults for a sudden high fever.",
		PatientProfile: PatientProfile{
			Name:           "Sarah Martin",
			Age:            22,
			Gender:         "Female",
			Occupation:     "Law student",
			ChiefComplaint: "Terrible headache and fever.",
			Vitals: Vitals{
				HeartRate:        "110 bpm",
				BloodPressure:    "110/70 mmHg",
				Temperature:      "39.5°C",
				RespiratoryRate:  "20 /min",
				OxygenSaturation: "98%",
			},
		},
		HiddenScenario: `You are Sarah Martin, 22. The fever started suddenly this morning. Light hurts your eyes and your neck is stiff,
you cannot touch your chest with your chin. You vomited twice. Your roommate noticed small purple spots on your legs.`,
		CorrectDiagnosis: "Bacterial meningitis",
	},
	{
		ID:                "case-003",
		Title:             "Right lower abdominal pain",
		Difficulty:        Beginner,
		Specialty:         "General surgery",
		PublicDescription: "A 19-year-old man complains of abdominal pain since last night.",
		PatientProfile: PatientProfile{
			Name:           "Lucas Bernard",
			Age:            19,
			Gender:         "Male",
			Occupation:     "Apprentice electrician",
			ChiefComplaint: "My belly hurts on the right side.",
			Vitals: Vitals{
				HeartRate:        "98 bpm",
				BloodPressure:    "125/80 mmHg",
				Temperature:      "38.1°C",
				RespiratoryRate:  "18 /min",
				OxygenSaturation: "99%",
			},
		},
		HiddenScenario: `You are Lucas Bernard, 19. The pain began around the belly button yesterday evening and moved to the lower right side.
You lost your appetite, felt nauseous once, and walking or coughing makes it worse. No diarrhoea, no urinary symptoms.`,
		CorrectDiagnosis: "Acute appendicitis",
	},
	{
		ID:                "case-004",
		Title:             "Thirst and confusion",
		Difficulty:        Intermediate,
		Specialty:         "Endocrinology",
		PublicDescription: "A 24-year-old woman is brought in by her partner for drowsiness and vomiting.",
		PatientProfile: PatientProfile{
			Name:           "Emma Laurent",
			Age:            24,
			Gender:         "Female",
			Occupation:     "Graphic designer",
			ChiefComplaint: "I feel awful, I keep throwing up and I'm so thirsty.",
			Vitals: Vitals{
				HeartRate:        "122 bpm",
				BloodPressure:    "98/60 mmHg",
				Temperature:      "37.0°C",
				RespiratoryRate:  "28 /min",
				OxygenSaturation: "99%",
			},
		},
		HiddenScenario: `You are Emma Laurent, 24, type 1 diabetic since age 12. You had the flu for three days and stopped your insulin because you were not eating.
You urinate all the time, drink litres of water, have belly pain and breathe deeply and fast. Your breath smells fruity.`,
		CorrectDiagnosis: "Diabetic ketoacidosis",
	},
	{
		ID:                "case-005",
		Title:             "Tearing back pain",
		Difficulty:        Advanced,
		Specialty:         "Vascular surgery",
		PublicDescription: "A 68-year-old man arrives with sudden severe pain between the shoulder blades.",
		PatientProfile: PatientProfile{
			Name:           "Henri Dubois",
			Age:            68,
			Gender:         "Male",
			Occupation:     "Retired truck driver",
			ChiefComplaint: "Something is tearing in my back.",
			Vitals: Vitals{
				HeartRate:        "112 bpm",
				BloodPressure:    "178/96 mmHg (right arm), 142/80 mmHg (left arm)",
				Temperature:      "36.8°C",
				RespiratoryRate:  "24 /min",
				OxygenSaturation: "95%",
			},
		},
		HiddenScenario: `You are Henri Dubois, 68. Thirty minutes ago a sudden tearing pain started in the chest and moved between the shoulder blades.
It was maximal from the first second. You have poorly controlled hypertension and stopped your pills months ago. Your left arm feels weak and cold.`,
		CorrectDiagnosis: "Acute aortic dissection",
	},
	{
		ID:                "case-006",
		Title:             "Sudden breathlessness",
		Difficulty:        Advanced,
		Specialty:         "Pulmonology",
		PublicDescription: "A 34-year-old woman is short of breath two weeks after a long flight.",
		PatientProfile: PatientProfile{
			Name:           "Claire Moreau",
			Age:            34,
			Gender:         "Female",
			Occupation:     "Sales manager",
			ChiefComplaint: "I can't catch my breath and it hurts when I breathe in.",
			Vitals: Vitals{
				HeartRate:        "118 bpm",
				BloodPressure:    "112/74 mmHg",
				Temperature:      "37.4°C",
				RespiratoryRate:  "26 /min",
				OxygenSaturation: "91%",
			},
		},
		HiddenScenario: `You are Claire Moreau, 34. You came back from a 12-hour flight two weeks ago. Your left calf has been swollen and sore for a few days.
This morning you suddenly became breathless, with a sharp pain on the right side of the chest when breathing in. You take the contraceptive pill and smoke.`,
		CorrectDiagnosis: "Pulmonary embolism",
	},
}

// Static returns a copy of the built-in catalog.
func Static() []ClinicalCase {
	out := make([]ClinicalCase, len(staticCases))
	copy(out, staticCases)
	return out
}

// StaticFor returns the built-in cases of difficulty d.
func StaticFor(d Difficulty) []ClinicalCase {
	var out []ClinicalCase
	for _, c := range staticCases {
		if c.Difficulty == d {
			out = append(out, c)
		}
	}
	return out
}
