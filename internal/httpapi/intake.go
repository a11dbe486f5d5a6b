package httpapi

import "github.com/Skufu/leukovision/internal/patient"

const (
	answerYes = "Yes"
	answerNo  = "No"
)

// Intake is the raw questionnaire as submitted by the form or the JSON API.
// Binding tags carry the same constraints the form widgets show.
type Intake struct {
	Age    *int   `json:"age" form:"age" binding:"required,min=1,max=120"`
	Gender string `json:"gender" form:"gender" binding:"required,oneof=Male Female"`

	Fatigue               string `json:"fatigue" form:"fatigue" binding:"required,oneof=Yes No"`
	WeightLoss            string `json:"weight_loss" form:"weight_loss" binding:"required,oneof=Yes No"`
	FrequentInfections    string `json:"frequent_infections" form:"frequent_infections" binding:"required,oneof=Yes No"`
	EasyBruising          string `json:"easy_bruising" form:"easy_bruising" binding:"required,oneof=Yes No"`
	PaleSkin              string `json:"pale_skin" form:"pale_skin" binding:"required,oneof=Yes No"`
	ShortnessOfBreath     string `json:"shortness_of_breath" form:"shortness_of_breath" binding:"required,oneof=Yes No"`
	BoneJointPain         string `json:"bone_joint_pain" form:"bone_joint_pain" binding:"required,oneof=Yes No"`
	EnlargedLymphNodes    string `json:"enlarged_lymph_nodes" form:"enlarged_lymph_nodes" binding:"required,oneof=Yes No"`
	Fever                 string `json:"fever" form:"fever" binding:"required,oneof=Yes No"`
	NightSweats           string `json:"night_sweats" form:"night_sweats" binding:"required,oneof=Yes No"`
	InfectionHistory      string `json:"infection_history" form:"infection_history" binding:"required,oneof=Yes No"`
	FamilyHistoryLeukemia string `json:"family_history_leukemia" form:"family_history_leukemia" binding:"required,oneof=Yes No"`

	WBCCount       *float64 `json:"wbc_count" form:"wbc_count" binding:"required,min=0"`
	RBCCount       *float64 `json:"rbc_count" form:"rbc_count" binding:"required,min=0"`
	PlateletsCount *float64 `json:"platelets_count" form:"platelets_count" binding:"required,min=0"`
	Hemoglobin     *float64 `json:"hemoglobin" form:"hemoglobin" binding:"required,min=0"`
}

// Record converts a bound intake. Call only after binding succeeded, when
// every pointer field is set.
func (in Intake) Record() patient.Record {
	return patient.Record{
		Age:    *in.Age,
		Gender: patient.Gender(in.Gender),
		Symptoms: patient.Symptoms{
			Fatigue:               in.Fatigue == answerYes,
			WeightLoss:            in.WeightLoss == answerYes,
			FrequentInfections:    in.FrequentInfections == answerYes,
			EasyBruising:          in.EasyBruising == answerYes,
			PaleSkin:              in.PaleSkin == answerYes,
			ShortnessOfBreath:     in.ShortnessOfBreath == answerYes,
			BoneJointPain:         in.BoneJointPain == answerYes,
			EnlargedLymphNodes:    in.EnlargedLymphNodes == answerYes,
			Fever:                 in.Fever == answerYes,
			NightSweats:           in.NightSweats == answerYes,
			InfectionHistory:      in.InfectionHistory == answerYes,
			FamilyHistoryLeukemia: in.FamilyHistoryLeukemia == answerYes,
		},
		Labs: patient.Labs{
			WBCCount:       *in.WBCCount,
			RBCCount:       *in.RBCCount,
			PlateletsCount: *in.PlateletsCount,
			Hemoglobin:     *in.Hemoglobin,
		},
	}
}

type question struct {
	Name    string
	Label   string
	Help    string
	Options []string
	Min     string
	Max     string
	Step    string
}

func (q question) Numeric() bool {
	return len(q.Options) == 0
}

func yesNo(name, label, help string) question {
	return question{Name: name, Label: label, Help: help, Options: []string{answerYes, answerNo}}
}

func labValue(name, label, help string) question {
	return question{Name: name, Label: label, Help: help, Min: "0", Step: "any"}
}

// questions drives the intake form; order matches patient.FeatureNames.
var questions = []question{
	{Name: "age", Label: "Age", Min: "1", Max: "120", Step: "1"},
	{Name: "gender", Label: "Gender", Options: []string{string(patient.GenderMale), string(patient.GenderFemale)}},
	yesNo("fatigue", "Fatigue", "Fatigue refers to a constant feeling of tiredness or weakness that doesn't improve with rest."),
	yesNo("weight_loss", "Weight Loss", "Unintentional weight loss can be a symptom of underlying conditions like leukemia."),
	yesNo("frequent_infections", "Frequent Infections", "Recurring infections may indicate a weakened immune system, often seen in leukemia."),
	yesNo("easy_bruising", "Easy Bruising", "Unusual or frequent bruising may happen when platelets are low, which affects blood clotting in leukemia."),
	yesNo("pale_skin", "Pale Skin", "Pale skin means lighter than normal skin tone, often caused by anemia or low red blood cells due to leukemia."),
	yesNo("shortness_of_breath", "Shortness of Breath", "Low hemoglobin levels can cause fatigue and difficulty breathing."),
	yesNo("bone_joint_pain", "Bone or Joint Pain", "Leukemia can cause pain in the bones or joints due to overcrowded marrow."),
	yesNo("enlarged_lymph_nodes", "Enlarged Lymph Nodes", "Lymph nodes may swell due to abnormal white blood cell activity, which is common in leukemia."),
	yesNo("fever", "Fever", "Frequent fevers may indicate infections or abnormal immune responses."),
	yesNo("night_sweats", "Night Sweats", "Excessive sweating during sleep can be associated with cancers like leukemia or infections."),
	yesNo("infection_history", "Past Infection History", "A history of recurring infections may suggest a suppressed immune system."),
	yesNo("family_history_leukemia", "Family History of Leukemia", "Genetic predisposition can increase leukemia risk if a family member has had it."),
	labValue("wbc_count", "White Blood Cell (WBC) Count", ""),
	labValue("rbc_count", "Red Blood Cell (RBC) Count", ""),
	labValue("platelets_count", "Platelets Count", "Platelets help your blood clot. Low levels can lead to bleeding and bruising."),
	labValue("hemoglobin", "Hemoglobin", "Hemoglobin is a protein in red blood cells that carries oxygen. Low levels may indicate anemia or bone marrow issues."),
}
