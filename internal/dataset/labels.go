package dataset

import (
	"strconv"
	"strings"
)

// LabelMap maps a column name to its code -> human-readable label table.
type LabelMap map[string]map[string]string

// DefaultLabels returns the standard labels for the heart disease dataset.
func DefaultLabels() LabelMap {
	return LabelMap{
		ColTarget: {
			TargetAbsent:  "No Heart Disease",
			TargetPresent: "Heart Disease",
		},
		ColSex: {
			"0": "Female",
			"1": "Male",
		},
		ColChestPainType: {
			"1": "Typical Angina",
			"2": "Atypical Angina",
			"3": "Non-Anginal Pain",
			"4": "Asymptomatic",
		},
		ColFastingBS: {
			"0": "Fasting Blood Sugar <= 120 mg/dl",
			"1": "Fasting Blood Sugar > 120 mg/dl",
		},
		ColRestingECG: {
			"0": "Normal",
			"1": "ST-T Wave Abnormality",
			"2": "Left Ventricular Hypertrophy",
		},
		ColExAngina: {
			"0": "No",
			"1": "Yes",
		},
		ColSTSlope: {
			"1": "Upsloping",
			"2": "Flat",
			"3": "Downsloping",
		},
		ColThallium: {
			"3": "Normal",
			"6": "Fixed Defect",
			"7": "Reversible Defect",
		},
		ColNumVessels: {
			"0": "0 Vessels",
			"1": "1 Vessel",
			"2": "2 Vessels",
			"3": "3 Vessels",
			"4": "4 Vessels",
		},
	}
}

// Merge returns a copy of m with the codes of override added. Codes present
// in both take the label from override.
func (m LabelMap) Merge(override LabelMap) LabelMap {
	out := make(LabelMap, len(m)+len(override))
	for _, src := range []LabelMap{m, override} {
		for col, codes := range src {
			dst, ok := out[col]
			if !ok {
				dst = make(map[string]string, len(codes))
				out[col] = dst
			}
			for code, label := range codes {
				dst[code] = label
			}
		}
	}
	return out
}

// Lookup returns the label for code in col. Codes match exactly first and
// then by numeric value, so "1.0" finds the label registered for "1".
func (m LabelMap) Lookup(col, code string) (string, bool) {
	codes, ok := m[col]
	if !ok {
		return "", false
	}
	code = strings.TrimSpace(code)
	if label, ok := codes[code]; ok {
		return label, true
	}
	f, err := strconv.ParseFloat(code, 64)
	if err != nil {
		return "", false
	}
	for k, label := range codes {
		if kf, err := strconv.ParseFloat(k, 64); err == nil && kf == f {
			return label, true
		}
	}
	return "", false
}
