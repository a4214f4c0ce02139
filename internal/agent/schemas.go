package agent

var stringList = &schema{Type: "ARRAY", Items: &schema{Type: "STRING"}}

var verdictSchema = &schema{
	Type: "OBJECT",
	Properties: map[string]schema{
		"score":           {Type: "INTEGER", Description: "Score out of 100"},
		"strengths":       *stringList,
		"weaknesses":      *stringList,
		"missedQuestions": {Type: "ARRAY", Items: &schema{Type: "STRING"}, Description: "Important questions the student did not ask"},
		"finalComment":    {Type: "STRING"},
	},
	Required: []string{"score", "strengths", "weaknesses", "missedQuestions", "finalComment"},
}

var vitalsSchema = schema{
	Type: "OBJECT",
	Properties: map[string]schema{
		"heartRate":        {Type: "STRING"},
		"bloodPressure":    {Type: "STRING"},
		"temperature":      {Type: "STRING"},
		"respiratoryRate":  {Type: "STRING"},
		"oxygenSaturation": {Type: "STRING"},
	},
	Required: []string{"heartRate", "bloodPressure", "temperature", "respiratoryRate", "oxygenSaturation"},
}

var casesSchema = &schema{
	Type: "ARRAY",
	Items: &schema{
		Type: "OBJECT",
		Properties: map[string]schema{
			"title":             {Type: "STRING"},
			"difficulty":        {Type: "STRING", Enum: []string{"Beginner", "Intermediate", "Advanced"}},
			"specialty":         {Type: "STRING"},
			"publicDescription": {Type: "STRING"},
			"patientProfile": {
				Type: "OBJECT",
				Properties: map[string]schema{
					"name":           {Type: "STRING"},
					"age":            {Type: "INTEGER"},
					"gender":         {Type: "STRING"},
					"occupation":     {Type: "STRING"},
					"chiefComplaint": {Type: "STRING"},
					"vitals":         vitalsSchema,
				},
				Required: []string{"name", "age", "gender", "occupation", "chiefComplaint", "vitals"},
			},
			"hiddenScenario":   {Type: "STRING"},
			"correctDiagnosis": {Type: "STRING"},
		},
		Required: []string{"title", "difficulty", "specialty", "publicDescription", "patientProfile", "hiddenScenario", "correctDiagnosis"},
	},
}

var quizSchema = &schema{
	Type: "ARRAY",
	Items: &schema{
		Type: "OBJECT",
		Properties: map[string]schema{
			"question":     {Type: "STRING"},
			"options":      *stringList,
			"correctIndex": {Type: "INTEGER", Description: "Index of the right option, 0 to 3"},
			"explanation":  {Type: "STRING"},
		},
		Required: []string{"question", "options", "correctIndex", "explanation"},
	},
}

var coursesSchema = &schema{
	Type: "ARRAY",
	Items: &schema{
		Type: "OBJECT",
		Properties: map[string]schema{
			"title":       {Type: "STRING"},
			"description": {Type: "STRING"},
			"keyPoint":    {Type: "STRING"},
		},
		Required: []string{"title", "description", "keyPoint"},
	},
}
