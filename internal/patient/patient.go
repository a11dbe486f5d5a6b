package patient

import (
	"fmt"
	"math"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale:
		return true
	}
	return false
}

// Age bounds accepted by the intake form.
const (
	MinAge = 1
	MaxAge = 120
)

// FeatureCount is the width of the vector the classifier was trained on.
const FeatureCount = 18

// FeatureNames lists the model inputs in the order the classifier expects them.
// Reordering this slice invalidates every prediction.
var FeatureNames = [FeatureCount]string{
	"age",
	"gender",
	"fatigue",
	"weight_loss",
	"frequent_infections",
	"easy_bruising",
	"pale_skin",
	"shortness_of_breath",
	"bone_joint_pain",
	"enlarged_lymph_nodes",
	"fever",
	"night_sweats",
	"infection_history",
	"family_history_leukemia",
	"wbc_count",
	"rbc_count",
	"platelets_count",
	"hemoglobin",
}

// Symptoms holds the yes/no answers of the intake questionnaire.
type Symptoms struct {
	Fatigue               bool
	WeightLoss            bool
	FrequentInfections    bool
	EasyBruising          bool
	PaleSkin              bool
	ShortnessOfBreath     bool
	BoneJointPain         bool
	EnlargedLymphNodes    bool
	Fever                 bool
	NightSweats           bool
	InfectionHistory      bool
	FamilyHistoryLeukemia bool
}

// Labs holds the blood-count measurements.
type Labs struct {
	WBCCount       float64
	RBCCount       float64
	PlateletsCount float64
	Hemoglobin     float64
}

// Record is one patient submission.
type Record struct {
	Age    int
	Gender Gender
	Symptoms
	Labs
}

// Validate checks the bounds the intake form enforces. The encoder itself
// trusts its input, so anything that did not come through the form must
// pass here first.
func (r Record) Validate() error {
	if r.Age < MinAge || r.Age > MaxAge {
		return fmt.Errorf("%w: %d", ErrInvalidAge, r.Age)
	}
	if !r.Gender.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidGender, r.Gender)
	}

	labs := []struct {
		name  string
		value float64
	}{
		{"wbc_count", r.WBCCount},
		{"rbc_count", r.RBCCount},
		{"platelets_count", r.PlateletsCount},
		{"hemoglobin", r.Hemoglobin},
	}
	for _, l := range labs {
		if math.IsNaN(l.value) || math.IsInf(l.value, 0) || l.value < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidLabValue, l.name, l.value)
		}
	}

	return nil
}

func (s Symptoms) flags() [12]bool {
	return [12]bool{
		s.Fatigue,
		s.WeightLoss,
		s.FrequentInfections,
		s.EasyBruising,
		s.PaleSkin,
		s.ShortnessOfBreath,
		s.BoneJointPain,
		s.EnlargedLymphNodes,
		s.Fever,
		s.NightSweats,
		s.InfectionHistory,
		s.FamilyHistoryLeukemia,
	}
}

func (s *Symptoms) setFlags(f [12]bool) {
	s.Fatigue = f[0]
	s.WeightLoss = f[1]
	s.FrequentInfections = f[2]
	s.EasyBruising = f[3]
	s.PaleSkin = f[4]
	s.ShortnessOfBreath = f[5]
	s.BoneJointPain = f[6]
	s.EnlargedLymphNodes = f[7]
	s.Fever = f[8]
	s.NightSweats = f[9]
	s.InfectionHistory = f[10]
	s.FamilyHistoryLeukemia = f[11]
}

// Features encodes the record into the classifier's input vector, in
// FeatureNames order. Male encodes as 1, Female as 0, flags as 0/1.
func (r Record) Features() []float64 {
	out := make([]float64, 0, FeatureCount)
	out = append(out, float64(r.Age), boolToFloat(r.Gender == GenderMale))
	for _, f := range r.flags() {
		out = append(out, boolToFloat(f))
	}
	return append(out, r.WBCCount, r.RBCCount, r.PlateletsCount, r.Hemoglobin)
}

// FromFeatures is the inverse of Record.Features.
func FromFeatures(v []float64) (Record, error) {
	if len(v) != FeatureCount {
		return Record{}, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(v), FeatureCount)
	}

	age := v[0]
	if age != math.Trunc(age) {
		return Record{}, fmt.Errorf("%w: %v is not a whole number", ErrInvalidAge, age)
	}

	gender, err := decodeBinary(FeatureNames[1], v[1])
	if err != nil {
		return Record{}, err
	}

	r := Record{Age: int(age), Gender: GenderFemale}
	if gender {
		r.Gender = GenderMale
	}

	var flags [12]bool
	for i := range flags {
		flags[i], err = decodeBinary(FeatureNames[i+2], v[i+2])
		if err != nil {
			return Record{}, err
		}
	}
	r.setFlags(flags)

	r.WBCCount = v[14]
	r.RBCCount = v[15]
	r.PlateletsCount = v[16]
	r.Hemoglobin = v[17]

	return r, nil
}

func decodeBinary(name string, v float64) (bool, error) {
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%w: %s=%v", ErrInvalidFlag, name, v)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
