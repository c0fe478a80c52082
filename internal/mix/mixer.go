package mix

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/songmasher/api/internal/audio"
	"github.com/songmasher/api/internal/model"
)

// Stems holds one track's separated, already-transformed stems.
type Stems map[model.StemRole]*audio.Buffer

// Mixer assembles the final bus from both tracks' stems per the plan's
// recipe and section pairing.
type Mixer struct {
	log *zap.Logger
}

func NewMixer(log *zap.Logger) *Mixer {
	return &Mixer{log: log}
}

// Mix produces the unmastered output bus. Both stem sets must contain
// every role the recipe consumes.
func (m *Mixer) Mix(ctx context.Context, stemsA, stemsB Stems, plan *model.MashupPlan, params model.MixParameters) (*audio.Buffer, error) {
	vocals, instParts, err := selectStems(stemsA, stemsB, plan.Recipe, params)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frames := vocals.Frames()
	for _, p := range instParts {
		if p.buf.Frames() < frames {
			frames = p.buf.Frames()
		}
	}
	if frames == 0 {
		return nil, &Error{Kind: KindMissingStem, Msg: "a selected stem is empty"}
	}
	channels := vocals.Channels()

	vocalBus := busFrom(vocals, params.VocalsGain, channels, frames)
	instrumental := audio.NewBuffer(vocals.SampleRate, channels, frames)
	for _, p := range instParts {
		addScaled(instrumental, p.buf, p.gain)
	}

	env := vocalEnvelope(vocalBus, frames)
	if params.DeEsser {
		deEss(vocalBus)
	}
	if params.AutoEQ {
		autoEQ(instrumental, env)
	}
	if params.SidechainDuck {
		sidechainDuck(instrumental, env)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := audio.NewBuffer(vocals.SampleRate, channels, frames)
	addScaled(out, vocalBus, 1)
	addScaled(out, instrumental, 1)

	applySectionCrossfades(out, plan, params)
	if m.log != nil {
		m.log.Debug("stems mixed",
			zap.String("recipe", string(plan.Recipe)),
			zap.Int("frames", frames),
			zap.Int("pairs", len(plan.SectionPairs)),
		)
	}
	return out, nil
}

type gainedStem struct {
	buf  *audio.Buffer
	gain float64
}

// selectStems resolves the recipe into a vocal stem plus gained
// instrumental parts.
func selectStems(stemsA, stemsB Stems, recipe model.Recipe, params model.MixParameters) (*audio.Buffer, []gainedStem, error) {
	need := func(s Stems, role model.StemRole) (*audio.Buffer, error) {
		buf, ok := s[role]
		if !ok || buf == nil || buf.Frames() == 0 {
			return nil, &Error{Kind: KindMissingStem, Msg: "missing " + string(role) + " stem"}
		}
		return buf, nil
	}

	vocalSrc, instSrc := stemsA, stemsB
	if recipe == model.RecipeBVocalsAInstrumental {
		vocalSrc, instSrc = stemsB, stemsA
	}
	vocals, err := need(vocalSrc, model.StemVocals)
	if err != nil {
		return nil, nil, err
	}

	drums, err := need(instSrc, model.StemDrums)
	if err != nil {
		return nil, nil, err
	}
	parts := []gainedStem{{drums, params.DrumsGain}}

	if recipe == model.RecipeHybridDrums {
		// Energy-weighted blend of bass and other from both tracks.
		for _, role := range []model.StemRole{model.StemBass, model.StemOther} {
			gain := params.BassGain
			if role == model.StemOther {
				gain = params.OtherGain
			}
			fromA, err := need(stemsA, role)
			if err != nil {
				return nil, nil, err
			}
			fromB, err := need(stemsB, role)
			if err != nil {
				return nil, nil, err
			}
			wA, wB := energyWeights(fromA, fromB)
			parts = append(parts, gainedStem{fromA, gain * wA}, gainedStem{fromB, gain * wB})
		}
		return vocals, parts, nil
	}

	bass, err := need(instSrc, model.StemBass)
	if err != nil {
		return nil, nil, err
	}
	other, err := need(instSrc, model.StemOther)
	if err != nil {
		return nil, nil, err
	}
	parts = append(parts, gainedStem{bass, params.BassGain}, gainedStem{other, params.OtherGain})
	return vocals, parts, nil
}

func energyWeights(a, b *audio.Buffer) (float64, float64) {
	ea, eb := a.RMS(), b.RMS()
	total := ea + eb
	if total == 0 {
		return 0.5, 0.5
	}
	return ea / total, eb / total
}

func busFrom(src *audio.Buffer, gain float64, channels, frames int) *audio.Buffer {
	out := audio.NewBuffer(src.SampleRate, channels, frames)
	addScaled(out, src, gain)
	return out
}

// addScaled mixes src into dst with a gain, up to dst's frame count.
// A mono src feeds every dst channel.
func addScaled(dst, src *audio.Buffer, gain float64) {
	for ch := range dst.Data {
		srcCh := ch
		if srcCh >= src.Channels() {
			srcCh = 0
		}
		data := src.Data[srcCh]
		for i := range dst.Data[ch] {
			if i >= len(data) {
				break
			}
			dst.Data[ch][i] += data[i] * gain
		}
	}
}

// applySectionCrossfades shapes a fade window at every interior pair
// boundary, mapped into the stretched output timeline.
func applySectionCrossfades(buf *audio.Buffer, plan *model.MashupPlan, params model.MixParameters) {
	if params.CrossfadeLength <= 0 || len(plan.SectionPairs) < 2 {
		return
	}
	half := int(params.CrossfadeLength / 2 * float64(buf.SampleRate))
	if half == 0 {
		return
	}
	for _, pair := range plan.SectionPairs[1:] {
		// Post-transform time: original time divided by the speed factor.
		speed := plan.StretchRatio.A
		if plan.Recipe.VocalTrack() == "B" {
			speed = plan.StretchRatio.B
		}
		center := int(pair.SectionA.Start / speed * float64(buf.SampleRate))
		if plan.Recipe.VocalTrack() == "B" {
			center = int(pair.SectionB.Start / speed * float64(buf.SampleRate))
		}
		fadeWindow(buf, center, half, params.CrossfadeCurve)
	}
}

// fadeWindow applies a fade-out into the boundary and a matching fade-in
// out of it.
func fadeWindow(buf *audio.Buffer, center, half int, curve model.CrossfadeCurve) {
	for i := -half; i < half; i++ {
		pos := center + i
		if pos < 0 || pos >= buf.Frames() {
			continue
		}
		// t runs 0..1 across the window; gain dips to the curve's
		// midpoint at the boundary.
		t := float64(i+half) / float64(2*half)
		var gain float64
		if curve == model.CurveLinear {
			gain = 1 - (1-math.Abs(2*t-1))*0.5
		} else {
			gain = math.Sqrt(0.5 + 0.5*math.Abs(2*t-1))
		}
		for ch := range buf.Data {
			buf.Data[ch][pos] *= gain
		}
	}
}
