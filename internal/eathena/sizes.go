package eathena

import "github.com/manawire-project/manawire/internal/protocol"

// classicLengths holds the wire size of opcodes 0x0060..0x022f shared by
// every eAthena derived server. -1 marks a variable length message, 0 an
// opcode the server never sends.
var classicLengths = [...]int16{
	/* 0x0060 */ 0, 50, 3, -1, 55, 17, 3, 37, 46, -1, 23, -1, 3, 108, 3, 2,
	/* 0x0070 */ 3, 28, 19, 11, 3, -1, 9, 5, 54, 53, 58, 60, 41, 2, 6, 6,
	/* 0x0080 */ 7, 3, 2, 2, 2, 5, 16, 12, 10, 7, 29, 23, -1, -1, -1, 0,
	/* 0x0090 */ 7, 22, 28, 2, 6, 30, -1, -1, 3, -1, -1, 5, 9, 17, 17, 6,
	/* 0x00a0 */ 23, 6, 6, -1, -1, -1, -1, 8, 7, 6, 7, 4, 7, 0, -1, 6,
	/* 0x00b0 */ 8, 8, 3, 3, -1, 6, 6, -1, 7, 6, 2, 5, 6, 44, 5, 3,
	/* 0x00c0 */ 7, 2, 6, 8, 6, 7, -1, -1, -1, -1, 3, 3, 6, 6, 2, 27,
	/* 0x00d0 */ 3, 4, 4, 2, -1, -1, 3, -1, 6, 14, 3, -1, 28, 29, -1, -1,
	/* 0x00e0 */ 30, 30, 26, 2, 6, 26, 3, 3, 8, 19, 5, 2, 3, 2, 2, 2,
	/* 0x00f0 */ 3, 2, 6, 8, 21, 8, 8, 2, 2, 26, 3, -1, 6, 27, 30, 10,
	/* 0x0100 */ 2, 6, 6, 30, 79, 31, 10, 10, -1, -1, 4, 6, 6, 2, 11, -1,
	/* 0x0110 */ 10, 39, 4, 10, 31, 35, 10, 18, 2, 13, 15, 20, 68, 2, 3, 16,
	/* 0x0120 */ 6, 14, -1, -1, 21, 8, 8, 8, 8, 8, 2, 2, 3, 4, 2, -1,
	/* 0x0130 */ 6, 86, 6, -1, -1, 7, -1, 6, 3, 16, 4, 4, 4, 6, 24, 26,
	/* 0x0140 */ 22, 14, 6, 10, 23, 19, 6, 39, 8, 9, 6, 27, -1, 2, 6, 6,
	/* 0x0150 */ 110, 6, -1, -1, -1, -1, -1, 6, -1, 54, 66, 54, 90, 42, 6, 42,
	/* 0x0160 */ -1, -1, -1, -1, -1, 30, -1, 3, 14, 3, 30, 10, 43, 14, 186, 182,
	/* 0x0170 */ 14, 30, 10, 3, -1, 6, 106, -1, 4, 5, 4, -1, 6, 7, -1, -1,
	/* 0x0180 */ 6, 3, 106, 10, 10, 34, 0, 6, 8, 4, 4, 4, 29, -1, 10, 6,
	/* 0x0190 */ 90, 86, 24, 6, 30, 102, 9, 4, 8, 4, 14, 10, 4, 6, 2, 6,
	/* 0x01a0 */ 3, 3, 35, 5, 11, 26, -1, 4, 4, 6, 10, 12, 6, -1, 4, 4,
	/* 0x01b0 */ 11, 7, -1, 67, 12, 18, 114, 6, 3, 6, 26, 26, 26, 26, 2, 3,
	/* 0x01c0 */ 2, 14, 10, -1, 22, 22, 4, 2, 13, 97, 0, 9, 9, 29, 6, 28,
	/* 0x01d0 */ 8, 14, 10, 35, 6, 8, 4, 11, 54, 53, 60, 2, -1, 47, 33, 6,
	/* 0x01e0 */ 30, 8, 34, 14, 2, 6, 26, 2, 28, 81, 6, 10, 26, 2, -1, -1,
	/* 0x01f0 */ -1, -1, 20, 10, 32, 9, 34, 14, 2, 6, 48, 56, -1, 4, 5, 10,
	/* 0x0200 */ 26, -1, 26, 10, 18, 26, 11, 34, 14, 36, 10, 0, 0, -1, 32, 10,
	/* 0x0210 */ 22, 0, 26, 26, 42, 6, 6, 2, 2, 282, 282, 10, 10, 6, 6, 66,
	/* 0x0220 */ 10, -1, 6, 8, 10, 2, 282, 18, 18, 15, 58, 57, 65, 5, 71, 5,
}

const classicFirst = 0x0060

// extendedSizes covers opcodes above the classic range that any flavor
// may send, whether or not this client handles them.
var extendedSizes = protocol.SizeTable{
	0x0283: protocol.Fixed(6),
	0x02c1: protocol.Variable(),
	0x02e1: protocol.Fixed(33),
	0x02e8: protocol.Variable(),
	0x02e9: protocol.Variable(),
	0x02eb: protocol.Fixed(13),
	0x043f: protocol.Fixed(25),
	0x07f7: protocol.Variable(),
	0x07f8: protocol.Variable(),
	0x07f9: protocol.Variable(),
	0x07fd: protocol.Variable(),
	0x0856: protocol.Variable(),
	0x0857: protocol.Variable(),
	0x0858: protocol.Variable(),
	0x08c8: protocol.Fixed(34),
	0x090f: protocol.Variable(),
	0x0914: protocol.Variable(),
	0x0915: protocol.Variable(),
	0x0983: protocol.Fixed(29),
	0x0990: protocol.Fixed(31),
	0x0991: protocol.Variable(),
	0x0992: protocol.Variable(),
	0x0993: protocol.Variable(),
	0x0994: protocol.Variable(),
	0x0995: protocol.Variable(),
	0x0996: protocol.Variable(),
	0x099b: protocol.Fixed(8),
	0x099d: protocol.Variable(),
	0x09cb: protocol.Fixed(17),
	0x09dd: protocol.Variable(),
	0x09de: protocol.Variable(),
	0x09df: protocol.Variable(),
	0x09fd: protocol.Variable(),
	0x09fe: protocol.Variable(),
	0x09ff: protocol.Variable(),
	0x0a30: protocol.Fixed(106),
	0x0a36: protocol.Fixed(7),
	0x0acb: protocol.Fixed(12),
}

// handledSizes holds the layouts this client decodes. Every flavor and
// packet version keeps all of them so that opcodes another flavor uses
// are still framed and skipped.
var handledSizes = protocol.SizeTable{
	SmsgServerVersionResponse: protocol.Variable(),
	SmsgConnectionProblem:     protocol.Fixed(3),
	SmsgBeingChangeDirection:  protocol.Fixed(9),
	SmsgBeingFakeName:         protocol.Fixed(54),
	SmsgSkillCasting:          protocol.Fixed(24),
	SmsgSkillCasting3:         protocol.Fixed(25),
	SmsgBeingHP:               protocol.Fixed(10),
	SmsgBeingHP2:              protocol.Fixed(14),
	SmsgMonsterHP:             protocol.Fixed(14),
	SmsgBeingSpecialEffect:    protocol.Fixed(10),
	SmsgPlayerGetExp:          protocol.Fixed(14),
	SmsgPlayerGetExp2:         protocol.Fixed(18),
	SmsgWalkResponse:          protocol.Fixed(12),
	SmsgPlayerHeal:            protocol.Fixed(6),
	SmsgPlayerHeal2:           protocol.Fixed(8),
	SmsgSkillCoolDown:         protocol.Fixed(8),
	SmsgSkillCoolDownList:     protocol.Variable(),
	SmsgPlayerSkills:          protocol.Variable(),
	SmsgSkillAdd:              protocol.Fixed(39),
	SmsgSkillFailed:           protocol.FixedItems(10, 2),
	SmsgMVPItem:               protocol.FixedItems(4, 1),
	SmsgPlayerInventoryRemove: protocol.Fixed(6),
	SmsgPlayerEquip:           protocol.Fixed(11),
	SmsgPlayerUnequip:         protocol.Fixed(9),
	SmsgBeingChat:             protocol.Variable(),
	SmsgPlayerChat:            protocol.Variable(),
	SmsgWhisper:               protocol.Variable(),
	SmsgGMChat:                protocol.Variable(),
}

// Sizes returns the size table for v. Only layouts whose length changed
// with the packet version differ between versions.
func Sizes(v protocol.Version) protocol.SizeTable {
	t := make(protocol.SizeTable, len(classicLengths)+len(extendedSizes)+len(handledSizes))
	for i, n := range classicLengths {
		op := uint16(classicFirst + i)
		switch {
		case n == 0:
		case n < 0:
			t[op] = protocol.Variable()
		default:
			t[op] = protocol.Fixed(int(n))
		}
	}
	for op, e := range extendedSizes {
		t[op] = e
	}
	for op, e := range handledSizes {
		t[op] = e
	}
	if v.AtLeast(versionFakeNameType) {
		t[SmsgBeingFakeName] = protocol.Fixed(55)
	}
	return t
}
