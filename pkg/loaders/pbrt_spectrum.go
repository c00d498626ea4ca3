package loaders

import (
	"math"
	"sync"

	"github.com/df07/go-sceneio/pkg/core"
)

// metalIOR holds the RGB complex index of refraction of a conductor
type metalIOR struct {
	Eta, K core.Vec3
}

// metalTable maps the names used by "<metal>.eta.spd" and "<metal>.k.spd"
// spectrum files to RGB-averaged optical constants.
var metalTable = sync.OnceValue(func() map[string]metalIOR {
	return map[string]metalIOR{
		"a-C":    {core.NewVec3(2.9440999183, 2.2271502925, 1.9681668794), core.NewVec3(0.8874329109, 0.7993216383, 0.8152862927)},
		"Ag":     {core.NewVec3(0.1552646489, 0.1167232965, 0.1383806959), core.NewVec3(4.8283433224, 3.1222459278, 2.1469504455)},
		"Al":     {core.NewVec3(1.6574599595, 0.8803689579, 0.5212287346), core.NewVec3(9.2238691996, 6.2695232477, 4.8370012281)},
		"AlAs":   {core.NewVec3(3.6051023902, 3.2329365777, 2.2175611545), core.NewVec3(0.0006670247, -0.0004999400, 0.0074261204)},
		"AlSb":   {core.NewVec3(-0.0485225705, 4.1427547893, 4.6697691348), core.NewVec3(-0.0363741915, 0.0937665154, 1.3007390124)},
		"Au":     {core.NewVec3(0.1431189557, 0.3749570432, 1.4424785571), core.NewVec3(3.9831604247, 2.3857207478, 1.6032152899)},
		"Be":     {core.NewVec3(4.1850592788, 3.1850604423, 2.7840913457), core.NewVec3(3.8354398268, 3.0101260162, 2.8690088743)},
		"Cr":     {core.NewVec3(4.3696828663, 2.9167024892, 1.6547005413), core.NewVec3(5.2064337956, 4.2313645277, 3.7549467933)},
		"CsI":    {core.NewVec3(2.1449030413, 1.7023164587, 1.6624194173), core.NewVec3(0.0000000000, 0.0000000000, 0.0000000000)},
		"Cu":     {core.NewVec3(0.2004376970, 0.9240334304, 1.1022119527), core.NewVec3(3.9129485033, 2.4528477015, 2.1421879552)},
		"Cu2O":   {core.NewVec3(3.5492833755, 2.9520622449, 2.7369202137), core.NewVec3(0.1132179294, 0.1946659670, 0.6001681264)},
		"CuO":    {core.NewVec3(3.2453822204, 2.4496293965, 2.1974114493), core.NewVec3(0.5202739621, 0.5707372756, 0.7172250613)},
		"d-C":    {core.NewVec3(2.7112524747, 2.3185812849, 2.2288565009), core.NewVec3(0.0000000000, 0.0000000000, 0.0000000000)},
		"Hg":     {core.NewVec3(2.3989314904, 1.4400254917, 0.9095512090), core.NewVec3(6.3276269444, 4.3719414152, 3.4217899270)},
		"HgTe":   {core.NewVec3(4.7795267752, 3.2309984581, 2.6600252401), core.NewVec3(1.6319827058, 1.5808189339, 1.7295753852)},
		"Ir":     {core.NewVec3(3.0864098394, 2.0821938440, 1.6178866805), core.NewVec3(5.5921510077, 4.0671757150, 3.2672611269)},
		"K":      {core.NewVec3(0.0640493070, 0.0464100621, 0.0381842017), core.NewVec3(2.1042155920, 1.3489364357, 0.9132113889)},
		"Li":     {core.NewVec3(0.2657871942, 0.1956102432, 0.2209198538), core.NewVec3(3.5401743407, 2.3111306542, 1.6685930000)},
		"MgO":    {core.NewVec3(2.0895885542, 1.6507224525, 1.5948759692), core.NewVec3(0.0000000000, -0.0000000000, 0.0000000000)},
		"Mo":     {core.NewVec3(4.4837010280, 3.5254578255, 2.7760769438), core.NewVec3(4.1111307988, 3.4208716252, 3.1506031404)},
		"Na":     {core.NewVec3(0.0602665320, 0.0561412435, 0.0619909494), core.NewVec3(3.1792906496, 2.1124800781, 1.5790940266)},
		"Nb":     {core.NewVec3(3.4201353595, 2.7901921379, 2.3955856658), core.NewVec3(3.4413817900, 2.7376437930, 2.5799132708)},
		"Ni":     {core.NewVec3(2.3672753521, 1.6633583302, 1.4670554172), core.NewVec3(4.4988329911, 3.0501643957, 2.3454274399)},
		"Rh":     {core.NewVec3(2.5857954933, 1.8601866068, 1.5544279524), core.NewVec3(6.7822927110, 4.7029501026, 3.9760892461)},
		"Se-e":   {core.NewVec3(5.7242724833, 4.1653992967, 4.0816099264), core.NewVec3(0.8713747439, 1.1052845009, 1.5647788766)},
		"Se":     {core.NewVec3(4.0592611085, 2.8426947380, 2.8207582835), core.NewVec3(0.7543791750, 0.6385150558, 0.5215872029)},
		"SiC":    {core.NewVec3(3.1723450205, 2.5259677964, 2.4793623897), core.NewVec3(0.0000007284, -0.0000006859, 0.0000100150)},
		"SnTe":   {core.NewVec3(4.5251865890, 1.9811525984, 1.2816819226), core.NewVec3(0.0000000000, 0.0000000000, 0.0000000000)},
		"Ta":     {core.NewVec3(2.0625846607, 2.3930915569, 2.6280684948), core.NewVec3(2.4080467973, 1.7413705864, 1.9470377016)},
		"Te-e":   {core.NewVec3(7.5090397678, 4.2964603080, 2.3698732430), core.NewVec3(5.5842076830, 4.9476231084, 3.9975145063)},
		"Te":     {core.NewVec3(7.3908396088, 4.4821028985, 2.6370708478), core.NewVec3(3.2561412892, 3.5273908133, 3.2921683116)},
		"ThF4":   {core.NewVec3(1.8307187117, 1.4422274283, 1.3876488528), core.NewVec3(0.0000000000, 0.0000000000, 0.0000000000)},
		"TiC":    {core.NewVec3(3.7004673762, 2.8374356509, 2.5823030278), core.NewVec3(3.2656905818, 2.3515586388, 2.1727857800)},
		"TiN":    {core.NewVec3(1.6484691607, 1.1504482522, 1.3797795097), core.NewVec3(3.3684596226, 1.9434888540, 1.1020123347)},
		"TiO2-e": {core.NewVec3(3.1065574823, 2.5131551146, 2.5823844157), core.NewVec3(0.0000289537, -0.0000251484, 0.0001775555)},
		"TiO2":   {core.NewVec3(3.4566203131, 2.8017076558, 2.9051485020), core.NewVec3(0.0001026662, -0.0000897534, 0.0006356902)},
		"VC":     {core.NewVec3(3.6575665991, 2.7527298065, 2.5326814570), core.NewVec3(3.0683516659, 2.1986687713, 1.9631816252)},
		"VN":     {core.NewVec3(2.8656011588, 2.1191817791, 1.9400767149), core.NewVec3(3.0323264950, 2.0561075580, 1.6162930914)},
		"V":      {core.NewVec3(4.2775126218, 3.5131538236, 2.7611257461), core.NewVec3(3.4911844504, 2.8893580874, 3.1116965117)},
		"W":      {core.NewVec3(4.3707029924, 3.3002972445, 2.9982666528), core.NewVec3(3.5006778591, 2.6048652781, 2.2731930614)},
	}
})

// lookupMetal returns the optical constants of a named metal
func lookupMetal(name string) (metalIOR, bool) {
	ior, ok := metalTable()[name]
	return ior, ok
}

var (
	copperIOR = metalIOR{
		Eta: core.NewVec3(0.2004376970, 0.9240334304, 1.1022119527),
		K:   core.NewVec3(3.9129485033, 2.4528477015, 2.1421879552),
	}
	goldIOR = metalIOR{
		Eta: core.NewVec3(0.1431189557, 0.3749570432, 1.4424785571),
		K:   core.NewVec3(3.9831604247, 2.3857207478, 1.6032152899),
	}
)

// blackbodyToRGB converts a color temperature in Kelvin to linear sRGB with
// unit luminance, using the Kim et al. cubic fit of the Planckian locus.
func blackbodyToRGB(temperature float64) core.Vec3 {
	t := math.Max(1667, math.Min(25000, temperature))

	var x float64
	if t <= 4000 {
		x = -0.2661239e9/(t*t*t) - 0.2343580e6/(t*t) + 0.8776956e3/t + 0.179910
	} else {
		x = -3.0258469e9/(t*t*t) + 2.1070379e6/(t*t) + 0.2226347e3/t + 0.240390
	}

	var y float64
	switch {
	case t <= 2222:
		y = -1.1063814*x*x*x - 1.34811020*x*x + 2.18555832*x - 0.20219683
	case t <= 4000:
		y = -0.9549476*x*x*x - 1.37418593*x*x + 2.09137015*x - 0.16748867
	default:
		y = 3.0817580*x*x*x - 5.87338670*x*x + 3.75112997*x - 0.37001483
	}

	// xyY with Y = 1 to XYZ, then XYZ to linear sRGB
	X, Y, Z := x/y, 1.0, (1-x-y)/y
	return core.NewVec3(
		3.2404542*X-1.5371385*Y-0.4985314*Z,
		-0.9692660*X+1.8760108*Y+0.0415560*Z,
		0.0556434*X-0.2040259*Y+1.0572252*Z,
	)
}

// fresnelDielectric returns the unpolarized reflectance of a dielectric
// interface per channel.
func fresnelDielectric(cosw float64, eta core.Vec3) core.Vec3 {
	return core.NewVec3(
		fresnelDielectric1(cosw, eta.X),
		fresnelDielectric1(cosw, eta.Y),
		fresnelDielectric1(cosw, eta.Z),
	)
}

func fresnelDielectric1(cosw, eta float64) float64 {
	if cosw < 0 {
		eta = 1 / eta
		cosw = -cosw
	}
	sin2 := 1 - cosw*cosw
	cos2t := 1 - sin2/(eta*eta)
	if cos2t < 0 {
		return 1 // total internal reflection
	}
	t0 := math.Sqrt(cos2t)
	t1 := eta * t0
	t2 := eta * cosw
	rs := (cosw - t1) / (cosw + t1)
	rp := (t0 - t2) / (t0 + t2)
	return (rs*rs + rp*rp) / 2
}

// fresnelConductor returns the unpolarized reflectance of a conductor with
// complex index eta + ik per channel. A zero k falls back to the dielectric
// form.
func fresnelConductor(cosw float64, ior metalIOR) core.Vec3 {
	if ior.K.IsZero() {
		return fresnelDielectric(cosw, ior.Eta)
	}
	return core.NewVec3(
		fresnelConductor1(cosw, ior.Eta.X, ior.K.X),
		fresnelConductor1(cosw, ior.Eta.Y, ior.K.Y),
		fresnelConductor1(cosw, ior.Eta.Z, ior.K.Z),
	)
}

func fresnelConductor1(cosw, eta, k float64) float64 {
	cosw = math.Max(-1, math.Min(1, cosw))
	cos2 := cosw * cosw
	sin2 := math.Max(0, math.Min(1, 1-cos2))
	eta2, k2 := eta*eta, k*k

	t0 := eta2 - k2 - sin2
	a2plusb2 := math.Sqrt(t0*t0 + 4*eta2*k2)
	t1 := a2plusb2 + cos2
	a := math.Sqrt((a2plusb2 + t0) / 2)
	t2 := 2 * a * cosw
	rs := (t1 - t2) / (t1 + t2)

	t3 := cos2*a2plusb2 + sin2*sin2
	t4 := t2 * sin2
	rp := rs * (t3 - t4) / (t3 + t4)

	return (rp + rs) / 2
}

// remapRoughness converts a microfacet roughness to the perceptual
// roughness stored in materials. With remap set the value is first treated
// as the user-facing roughness of the source format and mapped to alpha.
func remapRoughness(roughness float64, remap bool) float64 {
	if roughness == 0 {
		return 0
	}
	if remap {
		x := math.Log(math.Max(roughness, 1e-3))
		roughness = 1.62142 + 0.819955*x + 0.1734*x*x + 0.0171201*x*x*x + 0.000640711*x*x*x*x
	}
	return math.Sqrt(math.Max(roughness, 0))
}
