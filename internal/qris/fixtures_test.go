package qris

const (
	staticPayload = "00020101021126570011ID.DANA.WWW011893600915302259148102090225914810303UMI" +
		"51440014ID.CO.QRIS.WWW0215ID10200211817450303UMI5204581453033605802ID" +
		"5911TOKO CONTOH6007JAKARTA61051234562070703A016304C653"

	legacyPayload = "00020101021226570011ID.DANA.WWW011893600915302259148102090225914810303UMI" +
		"51440014ID.CO.QRIS.WWW0215ID10200211817450303UMI52045814530336054130000000000001" +
		"5802ID5911TOKO CONTOH6007JAKARTA61051234562070703A016304EE6B"

	strictPayload = "00020101021226570011ID.DANA.WWW011893600915302259148102090225914810303UMI" +
		"51440014ID.CO.QRIS.WWW0215ID10200211817450303UMI520458145303360540210" +
		"5802ID5911TOKO CONTOH6007JAKARTA61051234562070703A0163040C58"

	legacy50000 = "00020101021226570011ID.DANA.WWW011893600915302259148102090225914810303UMI" +
		"51440014ID.CO.QRIS.WWW0215ID10200211817450303UMI52045814530336054130000000050000" +
		"5802ID5911TOKO CONTOH6007JAKARTA61051234562070703A0163045EDF"

	strict150000 = "00020101021226570011ID.DANA.WWW011893600915302259148102090225914810303UMI" +
		"51440014ID.CO.QRIS.WWW0215ID10200211817450303UMI52045814530336054061500005802ID" +
		"5911TOKO CONTOH6007JAKARTA61051234562070703A01630431D3"

	static50000 = "00020101021226570011ID.DANA.WWW011893600915302259148102090225914810303UMI" +
		"51440014ID.CO.QRIS.WWW0215ID10200211817450303UMI5204581453033605405500005802ID" +
		"5911TOKO CONTOH6007JAKARTA61051234562070703A016304AFF2"

	static12500 = "00020101021226570011ID.DANA.WWW011893600915302259148102090225914810303UMI" +
		"51440014ID.CO.QRIS.WWW0215ID10200211817450303UMI520458145303360540812500.505802ID" +
		"5911TOKO CONTOH6007JAKARTA61051234562070703A016304A2B0"
)
